// Package admin implements the Admin Surface: the set of operator
// operations exposed by cmd/playtimed's subcommands, all acting directly
// on the Store. User, limit, schedule and pattern writes (promotion
// included) bump the Store's change-epoch, which the Daemon Loop compares at
// tick start to invalidate its pattern cache. Template, candidate-ignore,
// daemon-mode and maintenance writes do not bump it.
package admin

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// render substitutes {name}-style placeholders, leaving unmatched keys
// untouched, matching the Message Router's own rendering rule.
func render(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}

// Surface bundles the Store behind the operator-facing verb set.
type Surface struct {
	store domain.Store
	log   *zap.Logger
}

func New(store domain.Store, log *zap.Logger) *Surface {
	return &Surface{store: store, log: log}
}

// Users & limits

func (s *Surface) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.GetUsers(ctx)
}

func (s *Surface) SetUser(ctx context.Context, u domain.User) error {
	return s.store.UpsertUser(ctx, u)
}

func (s *Surface) GetLimits(ctx context.Context, user string) (domain.Limits, error) {
	return s.store.GetLimits(ctx, user)
}

func (s *Surface) SetLimits(ctx context.Context, l domain.Limits) error {
	if len(l.Schedule) != 0 && len(l.Schedule) != 168 {
		return domain.Wrap(domain.ErrScheduleMalformed, "admin.SetLimits", fmt.Errorf("schedule must be 168 chars, got %d", len(l.Schedule)))
	}
	return s.store.SetLimits(ctx, l)
}

// Schedule

func (s *Surface) GetSchedule(ctx context.Context, user string) (string, error) {
	return s.store.GetSchedule(ctx, user)
}

// SetSchedule replaces the full 168-character grid.
func (s *Surface) SetSchedule(ctx context.Context, user, grid string) error {
	if len(grid) != 168 {
		return domain.Wrap(domain.ErrScheduleMalformed, "admin.SetSchedule", fmt.Errorf("schedule must be 168 chars, got %d", len(grid)))
	}
	for _, c := range grid {
		if c != '0' && c != '1' {
			return domain.Wrap(domain.ErrScheduleMalformed, "admin.SetSchedule", fmt.Errorf("schedule chars must be 0 or 1"))
		}
	}
	return s.store.SetSchedule(ctx, user, grid)
}

// SetScheduleSlot flips a single weekday*24+hour cell.
func (s *Surface) SetScheduleSlot(ctx context.Context, user string, slot int, allowed bool) error {
	if slot < 0 || slot >= 168 {
		return domain.Wrap(domain.ErrScheduleMalformed, "admin.SetScheduleSlot", fmt.Errorf("slot must be 0-167, got %d", slot))
	}
	return s.store.SetScheduleSlot(ctx, user, slot, allowed)
}

// ScheduleEntry is one user's row of the schedule export/import JSON object,
// keyed by username: {"<user>": {"schedule": "...", "gaming_limit": N,
// "daily_total": N}}.
type ScheduleEntry struct {
	Schedule    string `json:"schedule"`
	GamingLimit int    `json:"gaming_limit"`
	DailyTotal  *int   `json:"daily_total,omitempty"`
}

// ExportSchedule snapshots every known user's schedule grid and limits into
// the wire format consumed by ImportSchedule, so export→import round-trips
// as a no-op.
func (s *Surface) ExportSchedule(ctx context.Context) (map[string]ScheduleEntry, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ScheduleEntry, len(users))
	for _, u := range users {
		l, err := s.store.GetLimits(ctx, u.Name)
		if err != nil {
			return nil, err
		}
		out[u.Name] = ScheduleEntry{Schedule: l.Schedule, GamingLimit: l.GamingLimitMin, DailyTotal: l.DailyTotalMin}
	}
	return out, nil
}

// ImportSchedule validates every entry — grid length, grid alphabet, and
// user existence — before writing any of them, so a single malformed entry
// rejects the whole batch rather than leaving the Store half-updated.
func (s *Surface) ImportSchedule(ctx context.Context, entries map[string]ScheduleEntry) error {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.Name] = true
	}

	for user, e := range entries {
		if !known[user] {
			return domain.Wrap(domain.ErrScheduleMalformed, "admin.ImportSchedule", fmt.Errorf("unknown user %q", user))
		}
		if len(e.Schedule) != 168 {
			return domain.Wrap(domain.ErrScheduleMalformed, "admin.ImportSchedule", fmt.Errorf("user %q: schedule must be 168 chars, got %d", user, len(e.Schedule)))
		}
		for _, c := range e.Schedule {
			if c != '0' && c != '1' {
				return domain.Wrap(domain.ErrScheduleMalformed, "admin.ImportSchedule", fmt.Errorf("user %q: schedule chars must be 0 or 1", user))
			}
		}
	}

	for user, e := range entries {
		l, err := s.store.GetLimits(ctx, user)
		if err != nil {
			return err
		}
		l.Schedule = e.Schedule
		l.GamingLimitMin = e.GamingLimit
		l.DailyTotalMin = e.DailyTotal
		if err := s.store.SetLimits(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// Patterns

func (s *Surface) ListPatterns(ctx context.Context, owner string) ([]domain.Pattern, error) {
	return s.store.ListPatterns(ctx, owner)
}

func (s *Surface) ListAllPatterns(ctx context.Context) ([]domain.Pattern, error) {
	return s.store.ListAllPatterns(ctx)
}

func (s *Surface) AddPattern(ctx context.Context, p domain.Pattern) (int64, error) {
	if p.MonitorState == "" {
		p.MonitorState = domain.MonitorActive
	}
	return s.store.InsertPattern(ctx, p)
}

func (s *Surface) UpdatePattern(ctx context.Context, p domain.Pattern) error {
	return s.store.UpdatePattern(ctx, p)
}

// RemovePattern marks a pattern ignored rather than deleting the row, so
// historical sessions still resolve their pattern_id foreign key.
func (s *Surface) RemovePattern(ctx context.Context, id int64) error {
	return s.store.SetPatternState(ctx, id, domain.MonitorIgnored)
}

// Discovery queue

func (s *Surface) ListCandidates(ctx context.Context) ([]domain.DiscoveryCandidate, error) {
	return s.store.ListCandidates(ctx)
}

func (s *Surface) GetCandidate(ctx context.Context, owner string, ptype domain.PatternType, key string) (domain.DiscoveryCandidate, bool, error) {
	return s.store.GetCandidate(ctx, owner, ptype, key)
}

func (s *Surface) PromoteCandidate(ctx context.Context, owner string, ptype domain.PatternType, key string, category domain.Category, displayName string) (domain.Pattern, error) {
	p, err := s.store.PromoteDiscovery(ctx, owner, ptype, key, category, displayName)
	if err != nil {
		return p, err
	}
	if err := s.store.SetPatternState(ctx, p.ID, domain.MonitorActive); err != nil {
		return p, err
	}
	p.MonitorState = domain.MonitorActive
	if s.log != nil {
		s.log.Info("discovery candidate promoted", zap.String("owner", owner), zap.String("key", key), zap.String("category", string(category)))
	}
	return p, nil
}

func (s *Surface) IgnoreCandidate(ctx context.Context, owner string, ptype domain.PatternType, key string) error {
	return s.store.DeleteCandidate(ctx, owner, ptype, key)
}

// Templates

func (s *Surface) ListTemplates(ctx context.Context, intention string) ([]domain.MessageTemplate, error) {
	return s.store.ListTemplates(ctx, intention)
}

func (s *Surface) AddTemplate(ctx context.Context, t domain.MessageTemplate) (int64, error) {
	return s.store.InsertTemplate(ctx, t)
}

// TestRender renders every enabled variant for intention against vars
// without dispatching, for operators previewing template text.
func (s *Surface) TestRender(ctx context.Context, intention string, vars map[string]string) ([]string, error) {
	templates, err := s.store.ListTemplates(ctx, intention)
	if err != nil {
		return nil, err
	}
	rendered := make([]string, 0, len(templates))
	for _, t := range templates {
		if !t.Enabled {
			continue
		}
		rendered = append(rendered, render(t.Title, vars)+"\n"+render(t.Body, vars))
	}
	return rendered, nil
}

// Audit

func (s *Surface) DumpAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return s.store.ListAudit(ctx, limit)
}

// Maintenance

func (s *Surface) Maintain(ctx context.Context, policy domain.RetentionPolicy) error {
	return s.store.Maintenance(ctx, policy)
}

// Mode

func (s *Surface) GetMode(ctx context.Context) (domain.DaemonMode, error) {
	return s.store.GetDaemonMode(ctx)
}

func (s *Surface) SetMode(ctx context.Context, mode domain.DaemonMode) error {
	switch mode {
	case domain.ModeNormal, domain.ModePassthrough, domain.ModeStrict:
	default:
		return domain.Wrap(domain.ErrConfigInvalid, "admin.SetMode", fmt.Errorf("unknown mode %q", mode))
	}
	return s.store.SetDaemonMode(ctx, mode)
}

// Status is a snapshot for the `status` subcommand.
type Status struct {
	Mode      domain.DaemonMode
	Epoch     int64
	Users     []domain.User
	Summaries map[string]domain.DailySummary
}

func (s *Surface) Status(ctx context.Context, today string) (Status, error) {
	mode, err := s.store.GetDaemonMode(ctx)
	if err != nil {
		return Status{}, err
	}
	epoch, err := s.store.Epoch(ctx)
	if err != nil {
		return Status{}, err
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return Status{}, err
	}
	summaries := make(map[string]domain.DailySummary, len(users))
	for _, u := range users {
		if sum, ok, err := s.store.LoadDailySummary(ctx, u.Name, today); err == nil && ok {
			summaries[u.Name] = sum
		}
	}
	return Status{Mode: mode, Epoch: epoch, Users: users, Summaries: summaries}, nil
}

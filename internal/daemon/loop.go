// Package daemon implements the Daemon Loop: the fixed-period tick that
// drives detection, classification, time accounting, enforcement, and
// notification for every monitored user, persisting the result each tick.
// The DailySummary upsert and the session open/close writes are separate
// Store calls; they do not share one transaction.
package daemon

import (
	"context"
	"os/user"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/accountant"
	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/kernel"
	"github.com/aaronsb/playtimed/internal/pattern"
	"github.com/aaronsb/playtimed/internal/router"
)

// Options configures a Loop's tick behavior, sourced from internal/config.
type Options struct {
	TickPeriod      time.Duration
	ResetHour       int
	CPUThreshold    float64
	MinSamples      int
	SampleWindowSec int
}

func DefaultOptions() Options {
	return Options{
		TickPeriod:      30 * time.Second,
		ResetHour:       4,
		CPUThreshold:    5.0,
		MinSamples:      5,
		SampleWindowSec: 3600,
	}
}

// Loop is the single-threaded cooperative polling loop described in the
// concurrency model: one time.Ticker, no background goroutines holding
// state across ticks.
type Loop struct {
	store      domain.Store
	clock      domain.Clock
	workers    []domain.DetectionWorker
	engine     *pattern.Engine
	accountant *accountant.Accountant
	kernel     *kernel.Kernel
	enforcer   *kernel.Enforcer
	router     *router.Router
	opts       Options
	log        *zap.Logger
}

func New(
	store domain.Store,
	clock domain.Clock,
	workers []domain.DetectionWorker,
	procs domain.ProcessManager,
	dispatcher router.Dispatcher,
	mode domain.DaemonMode,
	opts Options,
	log *zap.Logger,
) *Loop {
	return &Loop{
		store:      store,
		clock:      clock,
		workers:    workers,
		engine:     pattern.New(log.Named("pattern")),
		accountant: accountant.New(store, opts.TickPeriod, log.Named("accountant")),
		kernel:     kernel.New(store, clock, mode, log.Named("kernel")),
		enforcer:   kernel.NewEnforcer(procs, store, log.Named("enforcer")),
		router:     router.New(store, dispatcher, clock, log.Named("router")),
		opts:       opts,
		log:        log,
	}
}

// Run blocks ticking every opts.TickPeriod until ctx is cancelled, sealing
// every open session before returning.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.TickPeriod)
	defer ticker.Stop()

	if err := l.reloadIfStale(ctx); err != nil {
		l.log.Warn("initial pattern reload failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			now := l.clock.Now()
			n, err := l.store.SealAllOpenSessions(ctx, domain.EndUnknown, now)
			if err != nil {
				l.log.Warn("failed to seal open sessions on shutdown", zap.Error(err))
			} else if n > 0 {
				l.log.Info("sealed open sessions on shutdown", zap.Int("count", n))
			}
			return domain.Wrap(domain.ErrShutdown, "Loop.Run", ctx.Err())

		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.log.Error("tick failed", zap.Error(err))
			}
		}
	}
}

func (l *Loop) reloadIfStale(ctx context.Context) error {
	epoch, err := l.store.Epoch(ctx)
	if err != nil {
		return err
	}
	if epoch == l.engine.Epoch() {
		return nil
	}
	return l.engine.Reload(ctx, l.store, epoch)
}

// Tick runs one full detection/classification/accounting/enforcement pass
// across every enabled user, using l.clock for "now" so tests can drive it
// under a fake clock without waiting on the real ticker.
func (l *Loop) Tick(ctx context.Context) error {
	if err := l.reloadIfStale(ctx); err != nil {
		l.log.Warn("pattern reload failed, using stale cache", zap.Error(err))
	}

	mode, err := l.store.GetDaemonMode(ctx)
	if err != nil {
		return err
	}

	users, err := l.store.GetUsers(ctx)
	if err != nil {
		return err
	}

	now := l.clock.Now()
	for _, u := range users {
		if !u.Enabled {
			continue
		}
		if _, err := user.LookupId(strconv.Itoa(u.UID)); err != nil {
			continue
		}
		if err := l.tickUser(ctx, now, u, mode); err != nil {
			l.log.Warn("tick failed for user", zap.String("user", u.Name), zap.Error(err))
		}
	}
	return nil
}

func (l *Loop) tickUser(ctx context.Context, now time.Time, u domain.User, mode domain.DaemonMode) error {
	activities := l.scan(ctx, u)

	today := dateForResetHour(now, l.opts.ResetHour)
	summary, ok, err := l.store.LoadDailySummary(ctx, u.Name, today)
	if err != nil {
		return err
	}
	if !ok {
		summary = domain.DailySummary{User: u.Name, Date: today, State: domain.StateAvailable, LastPollAt: now, LastStateChange: now}
	}

	var gaming kernel.GamingActivity
	var gamingPatternID int64
	var anyTrackedActive bool
	for _, act := range activities {
		p, category, matched := l.engine.Classify(u.Name, act)
		if !matched {
			l.observeUnclassified(ctx, now, u, act)
			// Strict mode: unreviewed activity above the CPU threshold is
			// treated as gaming for enforcement purposes this tick, without
			// ever being persisted as a Pattern — the discovery queue above
			// is still the only path to a durable classification.
			if mode == domain.ModeStrict && act.CPUPercent != nil && *act.CPUPercent >= l.opts.CPUThreshold {
				gaming.Active = true
				anyTrackedActive = true
				if act.PID != nil {
					gaming.PIDs = append(gaming.PIDs, *act.PID)
				}
			}
			continue
		}
		if category == domain.CategoryIgnored {
			continue
		}
		if category != domain.CategoryGaming {
			anyTrackedActive = true
			continue
		}
		// A matched gaming pattern still needs its own cpu_threshold check:
		// a process match with no CPU sample (e.g. a browser-domain match)
		// always counts, but a process match below the pattern's threshold
		// (or the daemon default, when the pattern leaves it unset) does not.
		threshold := l.opts.CPUThreshold
		if p.CPUThreshold != nil {
			threshold = *p.CPUThreshold
		}
		if act.CPUPercent != nil && *act.CPUPercent < threshold {
			continue
		}
		gaming.Active = true
		anyTrackedActive = true
		gamingPatternID = p.ID
		if act.PID != nil {
			gaming.PIDs = append(gaming.PIDs, *act.PID)
		}
	}

	limits, err := l.store.GetLimits(ctx, u.Name)
	if err != nil {
		return err
	}

	wasGamingActive := summary.GamingActive
	summary, err = l.accountant.Advance(ctx, now, summary, gaming.Active, anyTrackedActive, gamingPatternID, gaming.PIDs)
	if err != nil {
		return err
	}
	if gaming.Active && !wasGamingActive {
		l.logEvent(ctx, now, u.Name, "game_start", gaming, activities)
	}

	summary, decision, err := l.kernel.Evaluate(ctx, now, u, limits, summary, gaming, l.opts.ResetHour)
	if err != nil {
		return err
	}

	for _, pid := range decision.KillPIDs {
		name := processNameForPID(activities, pid)
		if err := l.enforcer.Terminate(ctx, now, u.Name, pid, gamingPatternID, name, l.opts.TickPeriod); err != nil {
			l.log.Warn("kill protocol step failed", zap.Int("pid", pid), zap.Error(err))
		}
	}

	for _, ev := range decision.Events {
		switch ev.Intention {
		case "outside_hours":
			l.logEvent(ctx, now, u.Name, "blocked_schedule", gaming, activities)
		case "enforcement", "blocked_launch":
			l.logEvent(ctx, now, u.Name, "blocked_quota", gaming, activities)
		}
		if err := l.router.Route(ctx, u, ev); err != nil {
			l.log.Warn("event routing failed", zap.String("intention", ev.Intention), zap.Error(err))
		}
	}

	return l.store.SaveDailySummary(ctx, summary)
}

func (l *Loop) scan(ctx context.Context, u domain.User) []domain.DetectedActivity {
	var all []domain.DetectedActivity
	for _, w := range l.workers {
		if !w.IsAvailable() {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		acts, err := w.Scan(wctx, u)
		cancel()
		if err != nil {
			l.log.Warn("detection worker scan failed", zap.String("worker", w.Name()), zap.String("user", u.Name), zap.Error(err))
			continue
		}
		all = append(all, acts...)
	}
	return all
}

// observeUnclassified feeds an unmatched activity into the discovery
// pipeline so repeated sightings eventually promote to a Pattern.
func (l *Loop) observeUnclassified(ctx context.Context, now time.Time, u domain.User, act domain.DetectedActivity) {
	if _, _, err := pattern.RecordObservation(ctx, l.store, u.Name, act, int64(l.opts.TickPeriod.Seconds()), now, l.opts.MinSamples, l.opts.SampleWindowSec); err != nil {
		l.log.Warn("discovery observation failed", zap.String("user", u.Name), zap.String("key", act.Key), zap.Error(err))
	}
}

// logEvent appends an ActivityEvent for long-term analytics. Best-effort:
// AppendEvent never fails the tick, it only logs.
func (l *Loop) logEvent(ctx context.Context, now time.Time, userName, eventType string, gaming kernel.GamingActivity, activities []domain.DetectedActivity) {
	pid := 0
	name := ""
	if len(gaming.PIDs) > 0 {
		pid = gaming.PIDs[0]
		name = processNameForPID(activities, pid)
	}
	_ = l.store.AppendEvent(ctx, domain.ActivityEvent{
		Timestamp: now,
		User:      userName,
		EventType: eventType,
		App:       name,
		Category:  string(domain.CategoryGaming),
		PID:       pid,
	})
}

func processNameForPID(activities []domain.DetectedActivity, pid int) string {
	for _, a := range activities {
		if a.PID != nil && *a.PID == pid {
			return a.Key
		}
	}
	return ""
}

func dateForResetHour(t time.Time, resetHour int) string {
	if t.Hour() < resetHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

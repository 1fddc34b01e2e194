// Package kernel implements the Enforcement Kernel: the per-user state
// machine deciding warnings, grace, terminations, and blocked relaunches
// from the Time Accountant's counters and the Schedule Oracle's verdict.
package kernel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/schedule"
)

// Decision is the Kernel's output for one user for one tick: a target
// state, the events to route, and the PIDs (if any) to terminate.
type Decision struct {
	State        domain.State
	Events       []domain.Event
	KillPIDs     []int
	BlockedKey   string // not set by Evaluate; a blocked launch is reported as a blocked_launch event
}

type Kernel struct {
	store domain.Store
	clock domain.Clock
	log   *zap.Logger
	mode  domain.DaemonMode
}

func New(store domain.Store, clock domain.Clock, mode domain.DaemonMode, log *zap.Logger) *Kernel {
	return &Kernel{store: store, clock: clock, mode: mode, log: log}
}

// GamingActivity is the subset of per-tick classification results the
// Kernel needs: which PIDs are currently classified gaming, and whether
// any activity at all is classified gaming (browser domains have no PID).
type GamingActivity struct {
	Active   bool
	PIDs     []int
	Warnings map[int]bool // unused placeholder for future per-process warnings
}

// Evaluate runs the state-transition priority order for one user for one
// tick, given the already-advanced DailySummary, the user's Limits, and
// whether gaming activity is currently present.
func (k *Kernel) Evaluate(ctx context.Context, now time.Time, user domain.User, limits domain.Limits, summary domain.DailySummary, gaming GamingActivity, resetHour int) (domain.DailySummary, Decision, error) {
	var dec Decision

	// Rule 3: scheduled day rollover.
	if dayRolledOver(summary, now, resetHour) {
		summary = resetDaily(summary, now)
		dec.Events = append(dec.Events, domain.Event{
			Intention:    "day_reset",
			User:         user.Name,
			TemplateVars: map[string]string{"user": user.Name},
		})
		summary.State = domain.StateAvailable
	}

	allowed := schedule.IsAllowed(limits.Schedule, now)

	// Rule 1: outside allowed hours.
	if !allowed && gaming.Active {
		if summary.State != domain.StateOutsideHours {
			dec.Events = append(dec.Events, domain.Event{
				Intention:    "outside_hours",
				User:         user.Name,
				TemplateVars: map[string]string{"user": user.Name},
			})
		}
		summary.State = domain.StateOutsideHours
		if k.mode != domain.ModePassthrough {
			dec.KillPIDs = append(dec.KillPIDs, gaming.PIDs...)
		}
		return summary, dec, nil
	}

	effectiveLimit := limits.EffectiveLimit(weekdayMonday0(now))
	minutesUsed := summary.GamingTimeSec / 60
	minutesLeft := int64(effectiveLimit) - minutesUsed

	// Rule 2: time budget expiry / grace / enforcement.
	if minutesUsed >= int64(effectiveLimit) {
		switch summary.State {
		case domain.StateAvailable, domain.StateOutsideHours:
			summary.State = domain.StateGrace
			t := now
			summary.GraceStartedAt = &t
			dec.Events = append(dec.Events, domain.Event{
				Intention: "time_expired",
				User:      user.Name,
				TemplateVars: map[string]string{
					"user": user.Name, "time_used": strconv.FormatInt(minutesUsed, 10),
					"time_limit": strconv.Itoa(effectiveLimit),
				},
			})

		case domain.StateGrace:
			if !gaming.Active {
				summary.State = domain.StateAvailable
				summary.GraceStartedAt = nil
				return summary, dec, nil
			}
			graceElapsed := time.Duration(0)
			if summary.GraceStartedAt != nil {
				graceElapsed = now.Sub(*summary.GraceStartedAt)
			}
			if graceElapsed >= time.Duration(limits.GracePeriodSec)*time.Second {
				summary.State = domain.StateEnforcing
				dec.Events = append(dec.Events, domain.Event{
					Intention:    "enforcement",
					User:         user.Name,
					TemplateVars: map[string]string{"user": user.Name},
				})
				if k.mode != domain.ModePassthrough {
					dec.KillPIDs = append(dec.KillPIDs, gaming.PIDs...)
				}
			} else {
				dec.Events = append(dec.Events, domain.Event{
					Intention:    "grace_period",
					User:         user.Name,
					TemplateVars: map[string]string{"user": user.Name},
				})
			}

		case domain.StateEnforcing:
			if k.mode != domain.ModePassthrough && len(gaming.PIDs) > 0 {
				dec.KillPIDs = append(dec.KillPIDs, gaming.PIDs...)
				dec.Events = append(dec.Events, domain.Event{
					Intention:    "blocked_launch",
					User:         user.Name,
					TemplateVars: map[string]string{"user": user.Name},
				})
			}
		}
		return summary, dec, nil
	}

	// Rule 4: default available, with threshold warnings.
	summary.State = domain.StateAvailable
	if gaming.Active {
		for _, w := range []struct {
			n      int64
			warned *bool
		}{
			{30, &summary.Warned30},
			{15, &summary.Warned15},
			{5, &summary.Warned5},
		} {
			if minutesLeft <= w.n && !*w.warned {
				*w.warned = true
				dec.Events = append(dec.Events, domain.Event{
					Intention: fmt.Sprintf("time_warning_%d", w.n),
					User:      user.Name,
					TemplateVars: map[string]string{
						"user": user.Name, "time_left": strconv.FormatInt(minutesLeft, 10),
					},
				})
			}
		}
	}

	return summary, dec, nil
}

func dayRolledOver(summary domain.DailySummary, now time.Time, resetHour int) bool {
	if summary.Date == "" {
		return false
	}
	boundary := dateForResetHour(now, resetHour)
	return summary.Date != boundary && summary.LastStateChange.Before(resetBoundaryTime(now, resetHour))
}

// dateForResetHour returns the logical "day" key for t given a reset hour:
// instants before resetHour on the calendar day belong to the previous
// logical day.
func dateForResetHour(t time.Time, resetHour int) string {
	if t.Hour() < resetHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

func resetBoundaryTime(now time.Time, resetHour int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, now.Location())
}

func resetDaily(summary domain.DailySummary, now time.Time) domain.DailySummary {
	summary.GamingTimeSec = 0
	summary.TotalTimeSec = 0
	summary.Warned30 = false
	summary.Warned15 = false
	summary.Warned5 = false
	summary.GraceStartedAt = nil
	summary.LastStateChange = now
	return summary
}

func weekdayMonday0(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Package accountant implements the Time Accountant: per-user wall-clock
// accumulation with a suspend/resume clamp and session open/close
// bookkeeping, run once per user per tick ahead of the Enforcement Kernel.
package accountant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

type Accountant struct {
	store       domain.Store
	tickPeriod  time.Duration
	log         *zap.Logger
}

func New(store domain.Store, tickPeriod time.Duration, log *zap.Logger) *Accountant {
	return &Accountant{store: store, tickPeriod: tickPeriod, log: log}
}

// Advance applies one tick's elapsed time to summary given the activity
// classification result for this user, opening or sealing sessions for the
// matched gaming PIDs as gaming activity starts or stops. isGamingActive and
// isAnyTrackedActive are independent signals: isAnyTrackedActive covers the
// union of every tracked category (gaming, educational, social, launcher),
// so a launcher or educational-site session still advances TotalTimeSec even
// on ticks where no gaming activity is present. It mutates and returns the
// updated summary; callers persist it.
func (a *Accountant) Advance(ctx context.Context, now time.Time, summary domain.DailySummary, isGamingActive, isAnyTrackedActive bool, gamingPatternID int64, gamingPIDs []int) (domain.DailySummary, error) {
	wasGamingActive := summary.GamingActive
	wasTrackedActive := summary.TrackedActive

	elapsed := now.Sub(summary.LastPollAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if cap := 2 * a.tickPeriod; elapsed > cap {
		if a.log != nil {
			a.log.Info("clamping elapsed time across suspend/resume gap",
				zap.String("user", summary.User), zap.Duration("observed", elapsed), zap.Duration("clamped_to", cap))
		}
		elapsed = cap
	}

	switch {
	case wasGamingActive && isGamingActive:
		summary.GamingTimeSec += int64(elapsed.Seconds())

	case isGamingActive && !wasGamingActive:
		t := now
		summary.GamingStartedAt = &t
		for range gamingPIDs {
			if _, err := a.store.OpenSession(ctx, summary.User, gamingPatternID, now); err != nil {
				return summary, err
			}
		}

	case !isGamingActive && wasGamingActive:
		summary.GamingTimeSec += int64(elapsed.Seconds())
		sessions, err := a.store.OpenSessionsForUser(ctx, summary.User)
		if err != nil {
			return summary, err
		}
		for _, sess := range sessions {
			if err := a.store.CloseSession(ctx, sess.ID, domain.EndNatural, now); err != nil {
				return summary, err
			}
		}
		summary.GamingStartedAt = nil
	}

	if (wasTrackedActive && isAnyTrackedActive) || (!isAnyTrackedActive && wasTrackedActive) {
		summary.TotalTimeSec += int64(elapsed.Seconds())
	}

	summary.GamingActive = isGamingActive
	summary.TrackedActive = isAnyTrackedActive
	summary.LastPollAt = now
	return summary, nil
}

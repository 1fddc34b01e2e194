package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

func (s *Store) LoadDailySummary(ctx context.Context, user, date string) (domain.DailySummary, bool, error) {
	var d domain.DailySummary
	d.User = user
	d.Date = date
	var gamingActive, trackedActive, warned30, warned15, warned5 int
	var gamingStartedAt, graceStartedAt sql.NullInt64
	var lastPollAt, lastStateChange int64

	err := s.db.QueryRowContext(ctx, `
		SELECT state, gaming_active, tracked_active, gaming_time_sec, total_time_sec, gaming_started_at, grace_started_at,
			last_poll_at, warned_30, warned_15, warned_5, last_state_change
		FROM daily_summary WHERE user = ? AND date = ?
	`, user, date).Scan(&d.State, &gamingActive, &trackedActive, &d.GamingTimeSec, &d.TotalTimeSec, &gamingStartedAt, &graceStartedAt,
		&lastPollAt, &warned30, &warned15, &warned5, &lastStateChange)
	if err == sql.ErrNoRows {
		return domain.DailySummary{}, false, nil
	}
	if err != nil {
		return domain.DailySummary{}, false, domain.Wrap(domain.ErrStoreUnavailable, "LoadDailySummary", err)
	}

	d.GamingActive = gamingActive != 0
	d.TrackedActive = trackedActive != 0
	d.Warned30 = warned30 != 0
	d.Warned15 = warned15 != 0
	d.Warned5 = warned5 != 0
	d.LastPollAt = time.Unix(lastPollAt, 0).UTC()
	d.LastStateChange = time.Unix(lastStateChange, 0).UTC()
	if gamingStartedAt.Valid {
		t := time.Unix(gamingStartedAt.Int64, 0).UTC()
		d.GamingStartedAt = &t
	}
	if graceStartedAt.Valid {
		t := time.Unix(graceStartedAt.Int64, 0).UTC()
		d.GraceStartedAt = &t
	}
	return d, true, nil
}

// SaveDailySummary is an UPSERT keyed by (user, date), matching the
// original implementation's update_daily_summary idiom.
func (s *Store) SaveDailySummary(ctx context.Context, d domain.DailySummary) error {
	gamingActive := boolToInt(d.GamingActive)
	trackedActive := boolToInt(d.TrackedActive)
	warned30, warned15, warned5 := boolToInt(d.Warned30), boolToInt(d.Warned15), boolToInt(d.Warned5)

	var gamingStartedAt, graceStartedAt sql.NullInt64
	if d.GamingStartedAt != nil {
		gamingStartedAt = sql.NullInt64{Int64: d.GamingStartedAt.Unix(), Valid: true}
	}
	if d.GraceStartedAt != nil {
		graceStartedAt = sql.NullInt64{Int64: d.GraceStartedAt.Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_summary (user, date, state, gaming_active, tracked_active, gaming_time_sec, total_time_sec,
			gaming_started_at, grace_started_at, last_poll_at, warned_30, warned_15, warned_5, last_state_change)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user, date) DO UPDATE SET
			state = excluded.state,
			gaming_active = excluded.gaming_active,
			tracked_active = excluded.tracked_active,
			gaming_time_sec = excluded.gaming_time_sec,
			total_time_sec = excluded.total_time_sec,
			gaming_started_at = excluded.gaming_started_at,
			grace_started_at = excluded.grace_started_at,
			last_poll_at = excluded.last_poll_at,
			warned_30 = excluded.warned_30,
			warned_15 = excluded.warned_15,
			warned_5 = excluded.warned_5,
			last_state_change = excluded.last_state_change
	`, d.User, d.Date, d.State, gamingActive, trackedActive, d.GamingTimeSec, d.TotalTimeSec,
		gamingStartedAt, graceStartedAt, d.LastPollAt.Unix(), warned30, warned15, warned5, d.LastStateChange.Unix())
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "SaveDailySummary", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaronsb/playtimed/internal/domain"
)

func (s *Store) GetUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, uid, enabled FROM users ORDER BY name`)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "GetUsers", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		var enabled int
		if err := rows.Scan(&u.Name, &u.UID, &enabled); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "GetUsers", err)
		}
		u.Enabled = enabled != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "UpsertUser", err)
	}
	defer tx.Rollback()

	enabled := 0
	if u.Enabled {
		enabled = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (name, uid, enabled) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET uid = excluded.uid, enabled = excluded.enabled
	`, u.Name, u.UID, enabled)
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "UpsertUser", err)
	}
	if err := bumpEpoch(ctx, tx); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "UpsertUser", err)
	}
	return tx.Commit()
}

func (s *Store) GetLimits(ctx context.Context, user string) (domain.Limits, error) {
	var l domain.Limits
	l.User = user
	var overridesJSON string
	var dailyTotal sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT gaming_limit_min, weekday_overrides, daily_total_min, grace_period_sec, schedule
		FROM limits WHERE user = ?
	`, user).Scan(&l.GamingLimitMin, &overridesJSON, &dailyTotal, &l.GracePeriodSec, &l.Schedule)
	if err == sql.ErrNoRows {
		return domain.Limits{User: user, Schedule: ""}, nil
	}
	if err != nil {
		return domain.Limits{}, domain.Wrap(domain.ErrStoreUnavailable, "GetLimits", err)
	}

	var raw [7]*int
	if overridesJSON != "" {
		if err := json.Unmarshal([]byte(overridesJSON), &raw); err != nil {
			return domain.Limits{}, domain.Wrap(domain.ErrStoreUnavailable, "GetLimits", fmt.Errorf("decode weekday_overrides: %w", err))
		}
	}
	l.WeekdayOverrideMin = raw
	if dailyTotal.Valid {
		v := int(dailyTotal.Int64)
		l.DailyTotalMin = &v
	}
	return l, nil
}

func (s *Store) SetLimits(ctx context.Context, l domain.Limits) error {
	overridesJSON, err := json.Marshal(l.WeekdayOverrideMin)
	if err != nil {
		return domain.Wrap(domain.ErrConfigInvalid, "SetLimits", err)
	}
	var dailyTotal sql.NullInt64
	if l.DailyTotalMin != nil {
		dailyTotal = sql.NullInt64{Int64: int64(*l.DailyTotalMin), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "SetLimits", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO limits (user, gaming_limit_min, weekday_overrides, daily_total_min, grace_period_sec, schedule)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user) DO UPDATE SET
			gaming_limit_min = excluded.gaming_limit_min,
			weekday_overrides = excluded.weekday_overrides,
			daily_total_min = excluded.daily_total_min,
			grace_period_sec = excluded.grace_period_sec,
			schedule = excluded.schedule
	`, l.User, l.GamingLimitMin, string(overridesJSON), dailyTotal, l.GracePeriodSec, l.Schedule)
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "SetLimits", err)
	}
	if err := bumpEpoch(ctx, tx); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "SetLimits", err)
	}
	return tx.Commit()
}

func (s *Store) GetSchedule(ctx context.Context, user string) (string, error) {
	l, err := s.GetLimits(ctx, user)
	if err != nil {
		return "", err
	}
	return l.Schedule, nil
}

func (s *Store) SetSchedule(ctx context.Context, user string, schedule string) error {
	if len(schedule) != 168 {
		return domain.Wrap(domain.ErrScheduleMalformed, "SetSchedule", fmt.Errorf("schedule length %d != 168", len(schedule)))
	}
	for _, c := range schedule {
		if c != '0' && c != '1' {
			return domain.Wrap(domain.ErrScheduleMalformed, "SetSchedule", fmt.Errorf("invalid schedule character %q", c))
		}
	}

	l, err := s.GetLimits(ctx, user)
	if err != nil {
		return err
	}
	l.Schedule = schedule
	return s.SetLimits(ctx, l)
}

func (s *Store) SetScheduleSlot(ctx context.Context, user string, slot int, allowed bool) error {
	if slot < 0 || slot >= 168 {
		return domain.Wrap(domain.ErrScheduleMalformed, "SetScheduleSlot", fmt.Errorf("slot %d out of range", slot))
	}
	l, err := s.GetLimits(ctx, user)
	if err != nil {
		return err
	}
	grid := []byte(l.Schedule)
	if len(grid) != 168 {
		grid = make([]byte, 168)
		for i := range grid {
			grid[i] = '1'
		}
	}
	if allowed {
		grid[slot] = '1'
	} else {
		grid[slot] = '0'
	}
	l.Schedule = string(grid)
	return s.SetLimits(ctx, l)
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

func (s *Store) OpenSession(ctx context.Context, user string, patternID int64, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user, pattern_id, started_at, end_reason) VALUES (?, ?, ?, '')
	`, user, patternID, startedAt.Unix())
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreConflict, "OpenSession", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "OpenSession", err)
	}
	return id, nil
}

func (s *Store) CloseSession(ctx context.Context, sessionID int64, reason domain.EndReason, endedAt time.Time) error {
	var startedAt int64
	if err := s.db.QueryRowContext(ctx, `SELECT started_at FROM sessions WHERE id = ?`, sessionID).Scan(&startedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Wrap(domain.ErrStoreConflict, "CloseSession", err)
		}
		return domain.Wrap(domain.ErrStoreUnavailable, "CloseSession", err)
	}
	duration := endedAt.Unix() - startedAt
	if duration < 0 {
		duration = 0
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, duration_sec = ?, end_reason = ? WHERE id = ?
	`, endedAt.Unix(), duration, reason, sessionID)
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "CloseSession", err)
	}
	return nil
}

func (s *Store) OpenSessionsForUser(ctx context.Context, user string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user, pattern_id, started_at, ended_at, duration_sec, end_reason
		FROM sessions WHERE user = ? AND ended_at IS NULL
	`, user)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "OpenSessionsForUser", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *Store) SealAllOpenSessions(ctx context.Context, reason domain.EndReason, endedAt time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, duration_sec = ? - started_at, end_reason = ?
		WHERE ended_at IS NULL
	`, endedAt.Unix(), endedAt.Unix(), reason)
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "SealAllOpenSessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "SealAllOpenSessions", err)
	}
	return int(n), nil
}

func scanSessions(rows *sql.Rows) ([]domain.Session, error) {
	var out []domain.Session
	for rows.Next() {
		var sess domain.Session
		var endedAt sql.NullInt64
		var duration sql.NullInt64
		var startedAt int64
		if err := rows.Scan(&sess.ID, &sess.User, &sess.PatternID, &startedAt, &endedAt, &duration, &sess.EndReason); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "scanSessions", err)
		}
		sess.StartedAt = time.Unix(startedAt, 0).UTC()
		if endedAt.Valid {
			t := time.Unix(endedAt.Int64, 0).UTC()
			sess.EndedAt = &t
		}
		if duration.Valid {
			d := duration.Int64
			sess.DurationSec = &d
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

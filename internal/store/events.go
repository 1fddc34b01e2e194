package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// AppendEvent writes one activity-log row. Best-effort like message_log: a
// missed observation is not worth failing a tick over.
func (s *Store) AppendEvent(ctx context.Context, e domain.ActivityEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (timestamp, user, event_type, app, category, details, pid)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.Unix(), e.User, e.EventType, e.App, e.Category, e.Details, e.PID)
	if err != nil {
		if s.log != nil {
			s.log.Warn("activity event write failed", zap.Error(err))
		}
		return nil
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, user string, limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, event_type, app, category, details, pid
		FROM events WHERE user = ? ORDER BY id DESC LIMIT ?
	`, user, limit)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListEvents", err)
	}
	defer rows.Close()

	var out []domain.ActivityEvent
	for rows.Next() {
		var e domain.ActivityEvent
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.User, &e.EventType, &e.App, &e.Category, &e.Details, &e.PID); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListEvents", err)
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Maintenance purges rows older than the retention policy's cutoffs and
// reclaims space. Invoked on demand through the Admin Surface's
// maintenance verb; the daemon loop does not call it.
func (s *Store) Maintenance(ctx context.Context, policy domain.RetentionPolicy) error {
	now := time.Now()

	// audit is an enforcement record, retained indefinitely — only the
	// activity-events log is age-purged here.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE timestamp < ?`,
		now.Add(-policy.EventsOlderThan).Unix()); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "Maintenance:events", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE ended_at IS NOT NULL AND ended_at < ?`,
		now.Add(-policy.SessionsOlderThan).Unix()); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "Maintenance:sessions", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM message_log WHERE timestamp < ?`,
		now.Add(-policy.MessageLogOlderThan).Unix()); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "Maintenance:message_log", err)
	}

	if _, err := s.CleanupSeenPIDs(ctx, now.Add(-24*time.Hour)); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "Maintenance:vacuum", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

// RecordPIDSeen upserts a seen_pids row and reports whether this PID was
// newly observed, letting the ProcessWorker skip a PID's first sighting.
// Only a PID with no seen_pids row counts as new: a PID reused by another
// process while its old row still exists is reported as already seen.
func (s *Store) RecordPIDSeen(ctx context.Context, pid int, patternID int64, now time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM seen_pids WHERE pid = ?`, pid).Scan(&exists)
	firstSeen := err == sql.ErrNoRows
	if err != nil && err != sql.ErrNoRows {
		return false, domain.Wrap(domain.ErrStoreUnavailable, "RecordPIDSeen", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO seen_pids (pid, pattern_id, first_seen, last_seen, runtime_sec)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(pid) DO UPDATE SET last_seen = excluded.last_seen, pattern_id = excluded.pattern_id
	`, pid, patternID, now.Unix(), now.Unix())
	if err != nil {
		return false, domain.Wrap(domain.ErrStoreConflict, "RecordPIDSeen", err)
	}
	return firstSeen, nil
}

func (s *Store) CleanupSeenPIDs(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM seen_pids WHERE last_seen < ?`, olderThan.Unix())
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "CleanupSeenPIDs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "CleanupSeenPIDs", err)
	}
	return int(n), nil
}

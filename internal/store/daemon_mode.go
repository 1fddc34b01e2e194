package store

import (
	"context"
	"database/sql"

	"github.com/aaronsb/playtimed/internal/domain"
)

const daemonModeKey = "daemon_mode"

func (s *Store) GetDaemonMode(ctx context.Context) (domain.DaemonMode, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, daemonModeKey).Scan(&raw)
	if err == sql.ErrNoRows || !raw.Valid || raw.String == "" {
		return domain.ModeNormal, nil
	}
	if err != nil {
		return domain.ModeNormal, domain.Wrap(domain.ErrStoreUnavailable, "GetDaemonMode", err)
	}
	return domain.DaemonMode(raw.String), nil
}

// SeedDaemonModeIfUnset writes mode only if no daemon_mode row exists yet,
// so the config file's `daemon.mode` seeds the database on first start but
// never overrides a mode an operator has since changed at runtime via the
// Admin Surface.
func (s *Store) SeedDaemonModeIfUnset(ctx context.Context, mode domain.DaemonMode) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`, daemonModeKey, string(mode))
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "SeedDaemonModeIfUnset", err)
	}
	return nil
}

func (s *Store) SetDaemonMode(ctx context.Context, mode domain.DaemonMode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, daemonModeKey, string(mode))
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "SetDaemonMode", err)
	}
	return nil
}

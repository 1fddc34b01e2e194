// Package store implements domain.Store on an SQLCipher-encrypted SQLite
// database, following the teacher's EncryptedRegistry DSN-with-pragma-key
// pattern but with the domain schema this daemon actually needs.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"
	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Ensure the sqlcipher driver is registered even if nothing else in this
// package references the package directly.
var _ = sqlcipher.ErrBusy

const dbFileName = "store.db"

// Store implements domain.Store backed by a single *sql.DB.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ domain.Store = (*Store)(nil)

// Open creates (if needed) the data directory and opens the encrypted
// database at <dataDir>/store.db, keyed by key. An empty key opens the
// file unencrypted, which Maintenance and the browser-history reader (see
// internal/workers) rely on to reuse this same driver registration for
// read-only, unkeyed SQLite files without a second SQL driver dependency.
func Open(dataDir string, key []byte, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "store.Open", fmt.Errorf("create data dir: %w", err))
	}

	dsn := filepath.Join(dataDir, dbFileName)
	if len(key) > 0 {
		dsn = fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dsn, hex.EncodeToString(key))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "store.Open", err)
	}
	// The Store is the single writer (§5); one connection serialises all
	// writers against SQLite's file lock instead of fighting it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "store.Open", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "store.Open", err)
	}

	s := &Store{db: db, log: log}
	if err := s.seedTemplatesIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "store.Open", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Epoch returns the current change-epoch counter, bumped by user, limit,
// schedule and pattern writes so the Daemon Loop knows to invalidate its
// compiled pattern cache.
func (s *Store) Epoch(ctx context.Context) (int64, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'epoch'`).Scan(&raw)
	if err == sql.ErrNoRows || !raw.Valid {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v int64
	if _, err := fmt.Sscanf(raw.String, "%d", &v); err != nil {
		return 0, nil
	}
	return v, nil
}

func bumpEpoch(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('epoch', '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
	`)
	return err
}

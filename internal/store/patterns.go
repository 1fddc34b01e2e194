package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

func scanPattern(row interface {
	Scan(dest ...any) error
}) (domain.Pattern, error) {
	var p domain.Pattern
	var cpuThreshold sql.NullFloat64
	var sampleWindow, minSamples sql.NullInt64
	err := row.Scan(
		&p.ID, &p.PatternType, &p.PatternRegex, &p.DisplayName, &p.Category,
		&p.Owner, &p.MonitorState, &p.Priority, &p.Browser,
		&cpuThreshold, &sampleWindow, &minSamples, &p.DiscoveredCmdline,
	)
	if err != nil {
		return domain.Pattern{}, err
	}
	if cpuThreshold.Valid {
		v := cpuThreshold.Float64
		p.CPUThreshold = &v
	}
	if sampleWindow.Valid {
		v := int(sampleWindow.Int64)
		p.SampleWindowSec = &v
	}
	if minSamples.Valid {
		v := int(minSamples.Int64)
		p.MinSamples = &v
	}
	return p, nil
}

const patternColumns = `id, pattern_type, pattern_regex, display_name, category, owner, monitor_state, priority, browser, cpu_threshold, sample_window_sec, min_samples, discovered_cmdline`

func (s *Store) ListPatterns(ctx context.Context, owner string) ([]domain.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patternColumns+` FROM patterns WHERE owner = ? OR owner = '' ORDER BY priority ASC, id ASC`, owner)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListPatterns", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

func (s *Store) ListAllPatterns(ctx context.Context) ([]domain.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+patternColumns+` FROM patterns ORDER BY owner ASC, priority ASC, id ASC`)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListAllPatterns", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

func scanPatterns(rows *sql.Rows) ([]domain.Pattern, error) {
	var out []domain.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "scanPatterns", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPatternByID(ctx context.Context, id int64) (domain.Pattern, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return domain.Pattern{}, domain.Wrap(domain.ErrStoreConflict, "GetPatternByID", fmt.Errorf("pattern %d not found", id))
	}
	if err != nil {
		return domain.Pattern{}, domain.Wrap(domain.ErrStoreUnavailable, "GetPatternByID", err)
	}
	return p, nil
}

func (s *Store) InsertPattern(ctx context.Context, p domain.Pattern) (int64, error) {
	if _, err := compileRegex(p.PatternRegex); err != nil {
		return 0, domain.Wrap(domain.ErrPatternRegexInvalid, "InsertPattern", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "InsertPattern", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO patterns (pattern_type, pattern_regex, display_name, category, owner, monitor_state, priority, browser, cpu_threshold, sample_window_sec, min_samples, discovered_cmdline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.PatternType, p.PatternRegex, p.DisplayName, p.Category, p.Owner, orDefault(p.MonitorState, domain.MonitorActive), p.Priority, p.Browser, nullFloat(p.CPUThreshold), nullInt(p.SampleWindowSec), nullInt(p.MinSamples), p.DiscoveredCmdline)
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreConflict, "InsertPattern", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "InsertPattern", err)
	}
	if err := bumpEpoch(ctx, tx); err != nil {
		return 0, domain.Wrap(domain.ErrStoreUnavailable, "InsertPattern", err)
	}
	return id, tx.Commit()
}

func (s *Store) UpdatePattern(ctx context.Context, p domain.Pattern) error {
	if _, err := compileRegex(p.PatternRegex); err != nil {
		return domain.Wrap(domain.ErrPatternRegexInvalid, "UpdatePattern", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "UpdatePattern", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE patterns SET pattern_type=?, pattern_regex=?, display_name=?, category=?, owner=?, monitor_state=?,
			priority=?, browser=?, cpu_threshold=?, sample_window_sec=?, min_samples=?, discovered_cmdline=?
		WHERE id = ?
	`, p.PatternType, p.PatternRegex, p.DisplayName, p.Category, p.Owner, p.MonitorState, p.Priority, p.Browser,
		nullFloat(p.CPUThreshold), nullInt(p.SampleWindowSec), nullInt(p.MinSamples), p.DiscoveredCmdline, p.ID)
	if err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "UpdatePattern", err)
	}
	if err := bumpEpoch(ctx, tx); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "UpdatePattern", err)
	}
	return tx.Commit()
}

func (s *Store) SetPatternState(ctx context.Context, id int64, state domain.MonitorState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "SetPatternState", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE patterns SET monitor_state = ? WHERE id = ?`, state, id); err != nil {
		return domain.Wrap(domain.ErrStoreConflict, "SetPatternState", err)
	}
	if err := bumpEpoch(ctx, tx); err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "SetPatternState", err)
	}
	return tx.Commit()
}

// --- Discovery ---

func (s *Store) GetCandidate(ctx context.Context, owner string, ptype domain.PatternType, key string) (domain.DiscoveryCandidate, bool, error) {
	var c domain.DiscoveryCandidate
	var firstSeen, lastSeen int64
	err := s.db.QueryRowContext(ctx, `
		SELECT owner, pattern_type, key, first_seen, last_seen, samples, accumulated_runtime_sec
		FROM discovery_candidates WHERE owner = ? AND pattern_type = ? AND key = ?
	`, owner, ptype, key).Scan(&c.Owner, &c.PatternType, &c.Key, &firstSeen, &lastSeen, &c.Samples, &c.AccumulatedRuntimeSec)
	if err == sql.ErrNoRows {
		return domain.DiscoveryCandidate{}, false, nil
	}
	if err != nil {
		return domain.DiscoveryCandidate{}, false, domain.Wrap(domain.ErrStoreUnavailable, "GetCandidate", err)
	}
	c.FirstSeen = time.Unix(firstSeen, 0).UTC()
	c.LastSeen = time.Unix(lastSeen, 0).UTC()
	return c, true, nil
}

func (s *Store) RecordCandidateSample(ctx context.Context, owner string, ptype domain.PatternType, key string, runtimeDelta int64, now time.Time) (domain.DiscoveryCandidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.DiscoveryCandidate{}, domain.Wrap(domain.ErrStoreUnavailable, "RecordCandidateSample", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO discovery_candidates (owner, pattern_type, key, first_seen, last_seen, samples, accumulated_runtime_sec)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(owner, pattern_type, key) DO UPDATE SET
			last_seen = excluded.last_seen,
			samples = discovery_candidates.samples + 1,
			accumulated_runtime_sec = discovery_candidates.accumulated_runtime_sec + excluded.accumulated_runtime_sec
	`, owner, ptype, key, now.Unix(), now.Unix(), runtimeDelta)
	if err != nil {
		return domain.DiscoveryCandidate{}, domain.Wrap(domain.ErrStoreConflict, "RecordCandidateSample", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.DiscoveryCandidate{}, domain.Wrap(domain.ErrStoreUnavailable, "RecordCandidateSample", err)
	}

	c, ok, err := s.GetCandidate(ctx, owner, ptype, key)
	if err != nil {
		return domain.DiscoveryCandidate{}, err
	}
	if !ok {
		return domain.DiscoveryCandidate{}, domain.Wrap(domain.ErrStoreUnavailable, "RecordCandidateSample", fmt.Errorf("candidate vanished after upsert"))
	}
	return c, nil
}

func (s *Store) ListCandidates(ctx context.Context) ([]domain.DiscoveryCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, pattern_type, key, first_seen, last_seen, samples, accumulated_runtime_sec
		FROM discovery_candidates ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListCandidates", err)
	}
	defer rows.Close()

	var out []domain.DiscoveryCandidate
	for rows.Next() {
		var c domain.DiscoveryCandidate
		var firstSeen, lastSeen int64
		if err := rows.Scan(&c.Owner, &c.PatternType, &c.Key, &firstSeen, &lastSeen, &c.Samples, &c.AccumulatedRuntimeSec); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListCandidates", err)
		}
		c.FirstSeen = time.Unix(firstSeen, 0).UTC()
		c.LastSeen = time.Unix(lastSeen, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCandidate(ctx context.Context, owner string, ptype domain.PatternType, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM discovery_candidates WHERE owner = ? AND pattern_type = ? AND key = ?`, owner, ptype, key)
	if err != nil {
		return domain.Wrap(domain.ErrStoreUnavailable, "DeleteCandidate", err)
	}
	return nil
}

func (s *Store) PromoteDiscovery(ctx context.Context, owner string, ptype domain.PatternType, key string, category domain.Category, displayName string) (domain.Pattern, error) {
	p := domain.Pattern{
		PatternType:       ptype,
		PatternRegex:      regexQuoteExact(key),
		DisplayName:       displayName,
		Category:          category,
		Owner:             owner,
		MonitorState:      domain.MonitorDiscovered,
		DiscoveredCmdline: key,
	}
	id, err := s.InsertPattern(ctx, p)
	if err != nil {
		return domain.Pattern{}, err
	}
	if err := s.DeleteCandidate(ctx, owner, ptype, key); err != nil {
		return domain.Pattern{}, err
	}
	p.ID = id
	return p, nil
}

func orDefault(v domain.MonitorState, def domain.MonitorState) domain.MonitorState {
	if v == "" {
		return def
	}
	return v
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

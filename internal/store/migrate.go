package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// migrate brings a freshly-opened database up to schemaVersion. It is
// idempotent: re-running it against an already-current database is a
// no-op. New migrations are added as new numbered steps, never by
// rewriting an already-shipped one, mirroring the forward-only discipline
// of the original implementation's migrate_db.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(createSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	current, err := readSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if current < 1 {
		if err := synthesizeScheduleColumn(db); err != nil {
			return fmt.Errorf("synthesize schedule column: %w", err)
		}
		current = 1
	}

	if current < 2 {
		if err := addTrackedActiveColumn(db); err != nil {
			return fmt.Errorf("add tracked_active column: %w", err)
		}
		current = 2
	}

	return writeSchemaVersion(db, current)
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func writeSchemaVersion(db *sql.DB, v int) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, strconv.Itoa(v))
	return err
}

// synthesizeScheduleColumn fills in limits.schedule for any row where it is
// still empty. If legacy weekday_start/weekday_end/weekend_start/weekend_end
// columns exist (pre-168-grid deployments), the grid is derived from them;
// otherwise it defaults to all-allowed, per §4.1's migration rule.
func synthesizeScheduleColumn(db *sql.DB) error {
	hasLegacy, err := hasColumns(db, "limits", "weekday_start", "weekday_end", "weekend_start", "weekend_end")
	if err != nil {
		return err
	}

	rows, err := db.Query(`SELECT user, schedule FROM limits WHERE schedule = '' OR schedule IS NULL`)
	if err != nil {
		return err
	}
	type pending struct {
		user string
	}
	var toFill []pending
	for rows.Next() {
		var user, sched string
		if err := rows.Scan(&user, &sched); err != nil {
			rows.Close()
			return err
		}
		toFill = append(toFill, pending{user: user})
	}
	rows.Close()

	for _, p := range toFill {
		var grid string
		if hasLegacy {
			grid, err = legacyGrid(db, p.user)
			if err != nil {
				return err
			}
		} else {
			grid = strings.Repeat("1", 168)
		}
		if _, err := db.Exec(`UPDATE limits SET schedule = ? WHERE user = ?`, grid, p.user); err != nil {
			return err
		}
	}
	return nil
}

func legacyGrid(db *sql.DB, user string) (string, error) {
	var weekdayStart, weekdayEnd, weekendStart, weekendEnd sql.NullString
	err := db.QueryRow(
		`SELECT weekday_start, weekday_end, weekend_start, weekend_end FROM limits WHERE user = ?`, user,
	).Scan(&weekdayStart, &weekdayEnd, &weekendStart, &weekendEnd)
	if err != nil {
		return strings.Repeat("1", 168), nil
	}

	grid := make([]byte, 168)
	for i := range grid {
		grid[i] = '0'
	}
	applyWindow := func(days []int, startRaw, endRaw sql.NullString) {
		if !startRaw.Valid || !endRaw.Valid {
			for _, d := range days {
				for h := 0; h < 24; h++ {
					grid[d*24+h] = '1'
				}
			}
			return
		}
		startH := parseHour(startRaw.String)
		endH := parseHour(endRaw.String)
		for _, d := range days {
			for h := startH; h < endH && h < 24; h++ {
				if h >= 0 {
					grid[d*24+h] = '1'
				}
			}
		}
	}
	applyWindow([]int{0, 1, 2, 3, 4}, weekdayStart, weekdayEnd)
	applyWindow([]int{5, 6}, weekendStart, weekendEnd)
	return string(grid), nil
}

// parseHour accepts "HH:MM" or a bare hour and returns the hour component,
// or -1 if unparsable.
func parseHour(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	h, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return h
}

// addTrackedActiveColumn adds daily_summary.tracked_active for databases
// created before the Time Accountant started tracking non-gaming categories
// separately from gaming. createSchema's CREATE TABLE IF NOT EXISTS never
// touches an existing table, so this ALTER is the only path to the column
// for a pre-existing database.
func addTrackedActiveColumn(db *sql.DB) error {
	has, err := hasColumns(db, "daily_summary", "tracked_active")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = db.Exec(`ALTER TABLE daily_summary ADD COLUMN tracked_active INTEGER NOT NULL DEFAULT 0`)
	return err
}

func hasColumns(db *sql.DB, table string, cols ...string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(cols))
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		found[name] = true
	}
	for _, c := range cols {
		if !found[c] {
			return false, nil
		}
	}
	return true, nil
}

package store

// schemaVersion is the current forward-only migration target. Bump this and
// add a case to migrate() whenever the schema changes; never rewrite an
// already-shipped migration step.
const schemaVersion = 2

const createSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	name    TEXT PRIMARY KEY,
	uid     INTEGER NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS limits (
	user              TEXT PRIMARY KEY REFERENCES users(name),
	gaming_limit_min  INTEGER NOT NULL DEFAULT 0,
	weekday_overrides TEXT NOT NULL DEFAULT '[null,null,null,null,null,null,null]',
	daily_total_min   INTEGER,
	grace_period_sec  INTEGER NOT NULL DEFAULT 60,
	schedule          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS patterns (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	pattern_type       TEXT NOT NULL,
	pattern_regex      TEXT NOT NULL,
	display_name       TEXT NOT NULL,
	category           TEXT NOT NULL,
	owner              TEXT NOT NULL DEFAULT '',
	monitor_state      TEXT NOT NULL DEFAULT 'active',
	priority           INTEGER NOT NULL DEFAULT 0,
	browser            TEXT NOT NULL DEFAULT '',
	cpu_threshold      REAL,
	sample_window_sec  INTEGER,
	min_samples        INTEGER,
	discovered_cmdline TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_patterns_owner_state ON patterns(owner, monitor_state);

CREATE TABLE IF NOT EXISTS discovery_candidates (
	owner                   TEXT NOT NULL,
	pattern_type            TEXT NOT NULL,
	key                     TEXT NOT NULL,
	first_seen              INTEGER NOT NULL,
	last_seen               INTEGER NOT NULL,
	samples                 INTEGER NOT NULL DEFAULT 0,
	accumulated_runtime_sec INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (owner, pattern_type, key)
);

CREATE TABLE IF NOT EXISTS daily_summary (
	user              TEXT NOT NULL,
	date              TEXT NOT NULL,
	state             TEXT NOT NULL DEFAULT 'available',
	gaming_active     INTEGER NOT NULL DEFAULT 0,
	tracked_active    INTEGER NOT NULL DEFAULT 0,
	gaming_time_sec   INTEGER NOT NULL DEFAULT 0,
	total_time_sec    INTEGER NOT NULL DEFAULT 0,
	gaming_started_at INTEGER,
	grace_started_at  INTEGER,
	last_poll_at      INTEGER NOT NULL DEFAULT 0,
	warned_30         INTEGER NOT NULL DEFAULT 0,
	warned_15         INTEGER NOT NULL DEFAULT 0,
	warned_5          INTEGER NOT NULL DEFAULT 0,
	last_state_change INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user, date)
);

CREATE TABLE IF NOT EXISTS sessions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user         TEXT NOT NULL,
	pattern_id   INTEGER NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER,
	duration_sec INTEGER,
	end_reason   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_open ON sessions(user, ended_at);

CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  INTEGER NOT NULL,
	user       TEXT NOT NULL,
	event_type TEXT NOT NULL,
	app        TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	details    TEXT NOT NULL DEFAULT '',
	pid        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_events_user_timestamp ON events(user, timestamp);

CREATE TABLE IF NOT EXISTS audit (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp     INTEGER NOT NULL,
	user          TEXT NOT NULL,
	pid           INTEGER NOT NULL,
	process_name  TEXT NOT NULL,
	pattern_id    INTEGER NOT NULL,
	reason        TEXT NOT NULL,
	signal_sent   TEXT NOT NULL,
	exit_observed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS message_templates (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	intention TEXT NOT NULL,
	variant   TEXT NOT NULL,
	title     TEXT NOT NULL,
	body      TEXT NOT NULL,
	icon      TEXT NOT NULL DEFAULT 'dialog-information',
	urgency   INTEGER NOT NULL DEFAULT 1,
	enabled   INTEGER NOT NULL DEFAULT 1,
	UNIQUE(intention, variant)
);

CREATE TABLE IF NOT EXISTS message_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp       INTEGER NOT NULL,
	user            TEXT NOT NULL,
	intention       TEXT NOT NULL,
	template_id     INTEGER,
	rendered_title  TEXT NOT NULL,
	rendered_body   TEXT NOT NULL,
	backend         TEXT NOT NULL,
	notification_id INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS seen_pids (
	pid        INTEGER PRIMARY KEY,
	pattern_id INTEGER NOT NULL DEFAULT 0,
	first_seen INTEGER NOT NULL,
	last_seen  INTEGER NOT NULL,
	runtime_sec INTEGER NOT NULL DEFAULT 0
);
`

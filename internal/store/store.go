package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sqlx.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS profile (
		id                 INTEGER PRIMARY KEY CHECK (id = 1),
		second_language    TEXT NOT NULL DEFAULT 'hindi',
		elective           TEXT NOT NULL DEFAULT 'computer_applications',
		wake               INTEGER NOT NULL DEFAULT 360,
		breakfast          INTEGER NOT NULL DEFAULT 450,
		lunch              INTEGER NOT NULL DEFAULT 780,
		snack              INTEGER NOT NULL DEFAULT 1020,
		dinner             INTEGER NOT NULL DEFAULT 1230,
		sleep              INTEGER NOT NULL DEFAULT 1350,
		target_hours       REAL NOT NULL DEFAULT 6,
		streak_count       INTEGER NOT NULL DEFAULT 0,
		last_study_date    TEXT NOT NULL DEFAULT '',
		recovery_available INTEGER NOT NULL DEFAULT 0,
		before_reset       INTEGER NOT NULL DEFAULT 0,
		updated_at         TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS subjects (
		key        TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		difficulty INTEGER NOT NULL DEFAULT 3
	);

	CREATE TABLE IF NOT EXISTS chapters (
		subject_key         TEXT NOT NULL REFERENCES subjects(key) ON DELETE CASCADE,
		position            INTEGER NOT NULL,
		name                TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'not_started',
		revision_date       TEXT NOT NULL DEFAULT '',
		revision_intervals  TEXT NOT NULL DEFAULT '',
		revisions_completed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (subject_key, name)
	);

	CREATE TABLE IF NOT EXISTS exams (
		subject TEXT PRIMARY KEY,
		date    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS study_log (
		day      TEXT PRIMARY KEY,
		hours    REAL NOT NULL DEFAULT 0,
		sessions INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS timer_sessions (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		subject    TEXT NOT NULL,
		chapter    TEXT NOT NULL DEFAULT '',
		minutes    INTEGER NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON timer_sessions(date);

	CREATE TABLE IF NOT EXISTS grammar (
		category TEXT PRIMARY KEY,
		attempts INTEGER NOT NULL DEFAULT 0,
		correct  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS credits (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		balance    INTEGER NOT NULL,
		refill_day TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO credits (id, balance) VALUES (1, 10);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('timer_preset',            'pomodoro'),
		('custom_work',             '25'),
		('custom_break',            '5'),
		('difficulty_weight',       '0.25'),
		('exam_weight',             '3'),
		('horizon_days',            '60'),
		('max_block_minutes',       '60'),
		('min_block_minutes',       '20'),
		('break_minutes',           '10'),
		('lead_minutes',            '5'),
		('daily_credits',           '10'),
		('notify_study_reminders',  'true'),
		('notify_exam_alerts',      'true'),
		('notify_revision_due',     'true'),
		('notify_milestones',       'true');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/studyplan/studyplan.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "studyplan", "studyplan.db"), nil
}

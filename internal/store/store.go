package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// schema is applied on open. Plans are stored as their JSON document with
// the version and summary columns lifted out for queries.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id         TEXT PRIMARY KEY,
		client_id  TEXT NOT NULL DEFAULT '',
		name       TEXT NOT NULL DEFAULT '',
		version    INTEGER NOT NULL,
		document   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plan_revisions (
		plan_id  TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		version  INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		document TEXT NOT NULL,
		PRIMARY KEY (plan_id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS plans_updated_at ON plans(updated_at)`,
}

// Store is a SQLite-backed plan store.
type Store struct {
	db  *sql.DB
	sb  *entsql.DialectBuilder
	now func() time.Time
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{
		db:  db,
		sb:  entsql.Dialect(dialect.SQLite),
		now: time.Now,
	}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. WEEKPLAN_DB environment variable
// 2. $XDG_DATA_HOME/weekplan/weekplan.db
// 3. ~/.local/share/weekplan/weekplan.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("WEEKPLAN_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "weekplan", "weekplan.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) queryRow(ctx context.Context, q string, args []any) *sql.Row {
	return s.db.QueryRowContext(ctx, q, args...)
}

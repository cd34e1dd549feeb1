// Package db stores run history in a local SQLite database so past feature
// runs can be listed and compared.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	name TEXT NOT NULL,
	env TEXT NOT NULL DEFAULT '',
	passed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path);
`

// Run is one recorded feature run.
type Run struct {
	ID        int64
	Path      string
	Name      string
	Env       string
	Passed    int
	Failed    int
	Duration  time.Duration
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of one feature run.
func (s *Store) Record(ctx context.Context, result *runtime.FeatureResult, env string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (path, name, env, passed, failed, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		result.Path, result.Name, env, result.Passed, result.Failed,
		result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, name, env, passed, failed, duration_ms, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Path, &r.Name, &r.Env, &r.Passed, &r.Failed,
			&durationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

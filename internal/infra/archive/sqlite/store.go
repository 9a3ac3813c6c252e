// Package sqlite provides a file-backed run archive on top of the pure Go
// SQLite driver. Each run is stored as one row with the full record as a
// JSON payload plus denormalized columns for listing.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"seqprov/internal/archive/core"
	"seqprov/internal/journal"
)

const defaultPath = "seqprov.db"

// Store persists run records to a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the archive database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		transitions INTEGER NOT NULL,
		memo_hits INTEGER NOT NULL,
		incidents INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Driver identifies the backend.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// SaveRun upserts the record under its run id.
func (s *Store) SaveRun(ctx context.Context, rec journal.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("archive: run record missing id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs(id,started_at,finished_at,transitions,memo_hits,incidents,payload)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			started_at=excluded.started_at,
			finished_at=excluded.finished_at,
			transitions=excluded.transitions,
			memo_hits=excluded.memo_hits,
			incidents=excluded.incidents,
			payload=excluded.payload`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.Counters.Transitions,
		rec.Counters.MemoHits,
		rec.Counters.Incidents,
		payload,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun decodes the archived payload for id.
func (s *Store) GetRun(ctx context.Context, id string) (journal.RunRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.RunRecord{}, core.ErrNotFound
	}
	if err != nil {
		return journal.RunRecord{}, fmt.Errorf("select run %s: %w", id, err)
	}
	var rec journal.RunRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return journal.RunRecord{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns reads summaries from the denormalized columns ordered by start
// time, then id.
func (s *Store) ListRuns(ctx context.Context) ([]core.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, transitions, memo_hits, incidents
		FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Summary
	for rows.Next() {
		var sum core.Summary
		var started, finished string
		if err := rows.Scan(&sum.ID, &started, &finished, &sum.Counters.Transitions, &sum.Counters.MemoHits, &sum.Counters.Incidents); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if sum.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", sum.ID, err)
		}
		if sum.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at for %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

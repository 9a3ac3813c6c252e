// Package postgres provides a Postgres-backed run archive using pgx through
// the database/sql interface. Records are stored as JSONB payloads alongside
// denormalized listing columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"seqprov/internal/archive/core"
	"seqprov/internal/journal"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/seqprov?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists run records to a Postgres runs table.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed archive using the provided DSN (falls
// back to defaultDSN), verifies connectivity, and ensures the runs table
// exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureRunsTable(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureRunsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		transitions INTEGER NOT NULL,
		memo_hits INTEGER NOT NULL,
		incidents INTEGER NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure runs table: %w", err)
	}
	return nil
}

// Driver identifies the backend.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

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
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT(id) DO UPDATE SET
			started_at=EXCLUDED.started_at,
			finished_at=EXCLUDED.finished_at,
			transitions=EXCLUDED.transitions,
			memo_hits=EXCLUDED.memo_hits,
			incidents=EXCLUDED.incidents,
			payload=EXCLUDED.payload`,
		rec.ID, rec.StartedAt, rec.FinishedAt,
		rec.Counters.Transitions, rec.Counters.MemoHits, rec.Counters.Incidents,
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
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = $1`, id).Scan(&payload)
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

// ListRuns reads summaries ordered by start time, then id.
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
		if err := rows.Scan(&sum.ID, &sum.StartedAt, &sum.FinishedAt, &sum.Counters.Transitions, &sum.Counters.MemoHits, &sum.Counters.Incidents); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

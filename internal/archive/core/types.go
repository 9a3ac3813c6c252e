// Package core defines the storage-neutral contract for the run archive.
// Driver implementations live under internal/infra/archive and are wrapped
// by the internal/archive facade.
package core

import (
	"context"
	"errors"
	"time"

	"seqprov/internal/journal"
)

// Driver identifies an archive backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrNotFound is returned when a run id has no archived record.
var ErrNotFound = errors.New("archive: run not found")

// Summary is the listing projection of an archived run. Full transition and
// incident detail stays behind GetRun.
type Summary struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Counters   journal.Counters `json:"counters"`
}

// Store persists completed run records. SaveRun upserts, so re-archiving a
// run id replaces the earlier record.
type Store interface {
	SaveRun(ctx context.Context, rec journal.RunRecord) error
	GetRun(ctx context.Context, id string) (journal.RunRecord, error)
	ListRuns(ctx context.Context) ([]Summary, error)
	Driver() Driver
	Close() error
}

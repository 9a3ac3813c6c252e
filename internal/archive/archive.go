// Package archive fronts the run archive backends behind one facade: other
// packages depend on archive.Store and let Open pick the driver from the
// environment.
package archive

import (
	"context"
	"fmt"
	"os"

	"seqprov/internal/archive/core"
	"seqprov/internal/infra/archive/memory"
	"seqprov/internal/infra/archive/postgres"
	"seqprov/internal/infra/archive/sqlite"
)

type (
	// Driver identifies an archive backend driver.
	Driver = core.Driver
	// Summary is the listing projection of an archived run.
	Summary = core.Summary
	// Store is the interface for run archive backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-process default driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the file-backed driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the server-backed driver.
	DriverPostgres = core.DriverPostgres
)

// ErrNotFound indicates a run id has no archived record.
var ErrNotFound = core.ErrNotFound

// Open selects an archive.Store implementation using environment variables.
//
//	SEQPROV_ARCHIVE_DRIVER: memory|sqlite|postgres (default memory)
//	SEQPROV_ARCHIVE_SQLITE_PATH: database path when driver=sqlite (default seqprov.db)
//	SEQPROV_ARCHIVE_POSTGRES_DSN: connection string when driver=postgres
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("SEQPROV_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverMemory)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("SEQPROV_ARCHIVE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("SEQPROV_ARCHIVE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

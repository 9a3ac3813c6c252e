// Package blob fronts the artifact storage backends behind one facade: other
// packages depend on blob.Store and let Open pick the driver from the
// environment.
package blob

import (
	"context"
	"fmt"
	"os"

	"seqprov/internal/blob/core"
	"seqprov/internal/infra/blob/fs"
	"seqprov/internal/infra/blob/memory"
	"seqprov/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// Open selects a blob.Store implementation using environment variables.
//
//	SEQPROV_BLOB_DRIVER: fs|s3|memory (default fs)
//	SEQPROV_BLOB_FS_ROOT: directory root when driver=fs (default ./artifacts)
//	(S3 specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("SEQPROV_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(os.Getenv("SEQPROV_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

var (
	_ Store = (*fs.Store)(nil)
	_ Store = (*s3.Store)(nil)
	_ Store = (*memory.Store)(nil)
)

// Package core holds the types shared between the blob facade and the
// storage drivers. Keeping them here breaks the import cycle the facade's
// driver selection would otherwise create.
package core

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"
)

// Driver identifies a blob storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory, the development default
	DriverS3         Driver = "s3"     // S3 or MinIO compatible
	DriverMemory     Driver = "memory" // process-local, tests only
)

// PutOptions carries the optional attributes stored alongside an artifact.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string // small flat key-value pairs, e.g. run id and format
}

// SignedURLOptions configures PresignURL. Only GET is supported: artifacts
// are written by the export worker, never through a shared link.
type SignedURLOptions struct {
	Method string        // defaults to GET
	Expiry time.Duration // defaults to 15m
}

// Info describes a stored artifact.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the surface the artifact exporter writes through. Put is
// create-only: a run's artifacts are immutable once stored.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when a driver lacks an optional capability.
var ErrUnsupported = errors.New("blobstore: unsupported operation")

// CloneMetadata copies a user-metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	return maps.Clone(in)
}

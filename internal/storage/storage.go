// Package storage is the abstract artifact store the Provider engine reads
// and writes through: a flat namespace keyed by Stamp file names, backed by
// either a local directory or a remote object bucket.
package storage

import (
	"context"
	"io"

	"github.com/windcast/windcast/internal/stamp"
)

// Store is the contract the Provider engine uses. It never reaches past
// this interface into a concrete backend.
type Store interface {
	// Save copies the file at sourcePath into the store under name.
	Save(ctx context.Context, sourcePath, name string) error
	// Remove best-effort deletes name; a missing object is not an error.
	Remove(ctx context.Context, name string) error
	// Exists reports whether name is present.
	Exists(ctx context.Context, name string) (bool, error)
	// ExistsBlocking is Exists without a context, for call sites (the download
	// walk and the refresh loop) that accept a synchronous existence check
	// from a background loop.
	ExistsBlocking(name string) (bool, error)
	// List enumerates every object whose name parses as a Stamp file name,
	// silently dropping names that don't.
	List(ctx context.Context) ([]stamp.Stamp, error)
	// Get deserializes the JSON message array stored under name.
	Get(ctx context.Context, name string, v any) error
	// Open returns a reader over the raw bytes stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// String names this store for log lines, e.g. "Local (/data/noaa)".
	String() string
}

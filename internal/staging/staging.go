// Package staging holds uploaded files between receipt and indexing.
// Uploads land in the store, loaders read them from a local path, and
// the object is removed once its chunks are in the index.
package staging

import (
	"context"
	"io"
)

// Store stages uploaded documents. Fetch materializes an object as a
// local file so the format loaders can open it.
type Store interface {
	// Put stores content under a generated key and returns the key.
	Put(ctx context.Context, fileName string, content io.Reader, size int64) (string, error)
	// Fetch writes the object to a local file and returns its path.
	Fetch(ctx context.Context, key string) (string, error)
	// Remove deletes the staged object and any local copy.
	Remove(ctx context.Context, key string) error
}

// Package storage holds uploaded and synthesized audio blobs. The engine
// reads prompts from its own filesystem; this store is the durable copy the
// API serves and restores engine files from.
package storage

import (
	"context"
	"io"
)

// BlobStore reads and writes audio objects keyed by
// "<orgID>/<audioID>.<ext>".
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

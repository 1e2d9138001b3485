package storage

import (
	"context"
	"io"
)

// Storage is the minimal interface the upload domain needs from an
// object-storage backend.
type Storage interface {
	// Put stores an object under key and returns an error on failure.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object by key. Returns nil if the object doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the public URL for an object key.
	URL(key string) string
}

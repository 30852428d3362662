// Package storage defines the blob storage abstraction behind the artifact
// store. Implementations live in the local (filesystem) and memory
// subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject for a path that was never written.
var ErrObjectNotFound = errors.New("object not found")

// Provider reads and writes whole objects by relative path. Writing an
// existing path replaces it.
type Provider interface {
	// PutObject stores data at path and returns a URI for the object.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	// GetObject returns the bytes stored at path.
	GetObject(ctx context.Context, path string) ([]byte, error)
}

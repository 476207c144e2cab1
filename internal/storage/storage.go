// Package storage defines the revisioned document store and its implementations.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no document exists at the path.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when the supplied revision is no longer current,
	// or when Create targets a path that already exists.
	ErrConflict = errors.New("revision conflict")
)

// Document is the raw content of a stored file and the revision it was read at.
type Document struct {
	Content  []byte
	Revision string
}

// Store is a versioned file store. Every successful write creates a new
// revision carrying message in the store's history.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Create(ctx context.Context, path string, content []byte, message string) error
	Update(ctx context.Context, path string, content []byte, message, revision string) error

	Close() error
}

package storage

import (
	"context"
	"errors"
)

// DefaultKey is the namespaced key the settings document is stored under
const DefaultKey = "kindklick.settings.v1"

var (
	// ErrNotFound is returned by Load when no document has been written yet.
	ErrNotFound = errors.New("storage: settings not found")

	// ErrVersionConflict is returned by Save when the stored version moved
	// since the caller loaded it.
	ErrVersionConflict = errors.New("storage: version conflict")
)

// Backend persists one opaque document with a version counter.
// Version 0 means "not stored yet"; each successful Save increments it.
type Backend interface {
	// Load returns the raw document and its version.
	Load(ctx context.Context) ([]byte, int64, error)

	// Save writes data if the stored version still equals expected and
	// returns the new version. It returns ErrVersionConflict otherwise.
	Save(ctx context.Context, data []byte, expected int64) (int64, error)

	// Close releases backend resources.
	Close() error
}

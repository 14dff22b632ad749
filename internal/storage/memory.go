package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory. Used by tests and by
// the "memory" backend setting for ephemeral runs.
type MemoryBackend struct {
	mu      sync.Mutex
	data    []byte
	version int64

	loadErr error
	saveErr error
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements Backend
func (m *MemoryBackend) Load(_ context.Context) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, 0, m.loadErr
	}
	if m.version == 0 {
		return nil, 0, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, m.version, nil
}

// Save implements Backend
func (m *MemoryBackend) Save(_ context.Context, data []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return 0, m.saveErr
	}
	if m.version != expected {
		return 0, ErrVersionConflict
	}
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.version++
	return m.version, nil
}

// Close implements Backend
func (m *MemoryBackend) Close() error {
	return nil
}

// SetErrors makes subsequent Load and Save calls fail with the given errors.
// Pass nil to clear.
func (m *MemoryBackend) SetErrors(loadErr, saveErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = loadErr
	m.saveErr = saveErr
}

var _ Backend = (*MemoryBackend)(nil)

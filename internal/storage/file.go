package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores the document as a JSON file in a data directory.
// Writes go to a temp file first and are renamed into place. Save holds an
// flock on <key>.json.lock across the version check and rename, so a CLI
// run and a running server can share one data dir.
type FileBackend struct {
	dataDir string
	name    string
	mu      sync.Mutex
}

// fileEnvelope is the on-disk layout
type fileEnvelope struct {
	Version  int64           `json:"version"`
	Settings json.RawMessage `json:"settings"`
}

// NewFileBackend creates a FileBackend writing <dataDir>/<key>.json
func NewFileBackend(dataDir, key string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	if key == "" {
		key = DefaultKey
	}
	return &FileBackend{dataDir: dataDir, name: key + ".json"}, nil
}

// Path returns the full path of the settings file
func (f *FileBackend) Path() string {
	return filepath.Join(f.dataDir, f.name)
}

func (f *FileBackend) lockPath() string {
	return f.Path() + ".lock"
}

// Load implements Backend
func (f *FileBackend) Load(_ context.Context) ([]byte, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	env, err := f.read()
	if err != nil {
		return nil, 0, err
	}
	return env.Settings, env.Version, nil
}

// Save implements Backend
func (f *FileBackend) Save(_ context.Context, data []byte, expected int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := lockFile(f.lockPath())
	if err != nil {
		return 0, fmt.Errorf("storage: lock %s: %w", f.lockPath(), err)
	}
	defer unlock()

	var current int64
	env, err := f.read()
	switch {
	case err == nil:
		current = env.Version
	case errors.Is(err, ErrNotFound):
		current = 0
	default:
		return 0, err
	}
	if current != expected {
		return 0, ErrVersionConflict
	}

	next := fileEnvelope{Version: current + 1, Settings: json.RawMessage(data)}
	if err := f.saveFile(next); err != nil {
		return 0, fmt.Errorf("storage: write %s: %w", f.Path(), err)
	}
	return next.Version, nil
}

// Close implements Backend
func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) read() (fileEnvelope, error) {
	var env fileEnvelope
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return env, ErrNotFound
	}
	if err != nil {
		return env, fmt.Errorf("storage: read %s: %w", f.Path(), err)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("storage: decode %s: %w", f.Path(), err)
	}
	return env, nil
}

// saveFile atomically writes the envelope
func (f *FileBackend) saveFile(env fileEnvelope) error {
	jsonData, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	path := f.Path()
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, jsonData, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

var _ Backend = (*FileBackend)(nil)

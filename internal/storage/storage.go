// Package storage owns the persisted settings document. All reads return a
// private copy and all writes replace the whole document, guarded by an
// optimistic version check against the backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"kindklick/internal/models"
)

// DefaultMaxRetries bounds Update attempts on version conflicts
const DefaultMaxRetries = 5

// ErrNoChange may be returned by an Update callback to skip the write
var ErrNoChange = errors.New("storage: no change")

// Store handles settings persistence on top of a Backend
type Store struct {
	backend    Backend
	logger     *slog.Logger
	maxRetries int

	mu       sync.RWMutex
	lastGood *models.Settings
}

// New creates a new Store
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:    backend,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
	}
}

// Read returns the current settings, writing the defaults on first access
func (s *Store) Read(ctx context.Context) (*models.Settings, error) {
	settings, _, err := s.load(ctx)
	return settings, err
}

// Snapshot is Read with a fallback: if the backend fails, the last document
// read successfully is returned instead. It only errors when no earlier
// snapshot exists.
func (s *Store) Snapshot(ctx context.Context) (*models.Settings, error) {
	settings, err := s.Read(ctx)
	if err == nil {
		return settings, nil
	}

	s.mu.RLock()
	last := s.lastGood
	s.mu.RUnlock()
	if last == nil {
		return nil, err
	}

	s.logger.Warn("storage: read failed, using last known good settings", "error", err)
	return last.Clone(), nil
}

// Update runs a read-modify-write cycle. fn receives a private copy it may
// mutate; the result is saved only if nobody else wrote in between,
// otherwise fn is re-run on the fresh document. fn must therefore be
// free of side effects outside the settings it is given.
func (s *Store) Update(ctx context.Context, fn func(*models.Settings) error) (*models.Settings, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		current, version, err := s.load(ctx)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, ErrNoChange) {
				return current, nil
			}
			return nil, err
		}

		if _, err := s.save(ctx, next, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.logger.Debug("storage: version conflict, retrying", "attempt", attempt)
				continue
			}
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("storage: update gave up after %d attempts: %w", s.maxRetries, ErrVersionConflict)
}

// Write replaces the whole document regardless of concurrent writers
func (s *Store) Write(ctx context.Context, settings *models.Settings) error {
	_, err := s.Update(ctx, func(next *models.Settings) error {
		*next = *settings.Clone()
		return nil
	})
	return err
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) load(ctx context.Context) (*models.Settings, int64, error) {
	data, version, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.materializeDefaults(ctx)
	}
	if err != nil {
		return nil, 0, err
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, 0, fmt.Errorf("storage: decode settings: %w", err)
	}
	settings.Normalize()
	s.remember(&settings)
	return &settings, version, nil
}

func (s *Store) materializeDefaults(ctx context.Context) (*models.Settings, int64, error) {
	defaults := models.DefaultSettings()
	version, err := s.save(ctx, defaults, 0)
	if errors.Is(err, ErrVersionConflict) {
		// Another writer created the document first.
		return s.load(ctx)
	}
	if err != nil {
		return nil, 0, err
	}
	s.logger.Info("storage: initialized default settings")
	return defaults, version, nil
}

func (s *Store) save(ctx context.Context, settings *models.Settings, expected int64) (int64, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return 0, fmt.Errorf("storage: encode settings: %w", err)
	}
	version, err := s.backend.Save(ctx, data, expected)
	if err != nil {
		return 0, err
	}
	s.remember(settings)
	return version, nil
}

func (s *Store) remember(settings *models.Settings) {
	c := settings.Clone()
	s.mu.Lock()
	s.lastGood = c
	s.mu.Unlock()
}

package services

import (
	"context"
	"log/slog"
	"strings"

	"kindklick/internal/filter"
	"kindklick/internal/models"
	"kindklick/internal/storage"
)

// SettingsPatch is a partial settings update. Nil fields are left alone.
type SettingsPatch struct {
	Enabled           *bool               `json:"enabled,omitempty"`
	Profile           *string             `json:"profile,omitempty"`
	AllowList         *[]string           `json:"allow_list,omitempty"`
	BlockList         *[]string           `json:"block_list,omitempty"`
	EnabledCategories map[string]bool     `json:"enabled_categories,omitempty"`
	CategoryLists     map[string][]string `json:"category_lists,omitempty"`
	SafeSearch        *SafeSearchPatch    `json:"safe_search,omitempty"`
}

// SafeSearchPatch updates safe-search switches one at a time
type SafeSearchPatch struct {
	Enabled               *bool `json:"enabled,omitempty"`
	YouTubeRestrictedMode *bool `json:"youtube_restricted_mode,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p SettingsPatch) Empty() bool {
	return p.Enabled == nil && p.Profile == nil && p.AllowList == nil && p.BlockList == nil &&
		len(p.EnabledCategories) == 0 && len(p.CategoryLists) == 0 && p.SafeSearch == nil
}

// Apply merges the patch into s. Domain lists are cleaned on the way in.
func (p SettingsPatch) Apply(s *models.Settings) {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Profile != nil {
		if profile := strings.TrimSpace(*p.Profile); profile != "" {
			s.Profile = profile
		}
	}
	if p.AllowList != nil {
		s.AllowList = filter.CleanDomainList(*p.AllowList)
	}
	if p.BlockList != nil {
		s.BlockList = filter.CleanDomainList(*p.BlockList)
	}
	for name, on := range p.EnabledCategories {
		s.EnabledCategories[name] = on
	}
	for name, list := range p.CategoryLists {
		s.CategoryLists[name] = filter.CleanDomainList(list)
	}
	if ss := p.SafeSearch; ss != nil {
		if ss.Enabled != nil {
			s.SafeSearch.Enabled = *ss.Enabled
		}
		if ss.YouTubeRestrictedMode != nil {
			s.SafeSearch.YouTubeRestrictedMode = *ss.YouTubeRestrictedMode
		}
	}
}

// SettingsService reads and edits the policy document
type SettingsService struct {
	store  *storage.Store
	gate   *Gate
	logger *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store *storage.Store, gate *Gate, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{store: store, gate: gate, logger: logger}
}

// Get returns the current settings
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	return s.store.Read(ctx)
}

// Save applies a patch once creds pass the PIN gate
func (s *SettingsService) Save(ctx context.Context, patch SettingsPatch, creds Credentials) (*models.Settings, error) {
	updated, err := s.store.Update(ctx, func(settings *models.Settings) error {
		if err := s.gate.Authorize(settings, creds); err != nil {
			return err
		}
		if patch.Empty() {
			return storage.ErrNoChange
		}
		patch.Apply(settings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !patch.Empty() {
		s.logger.Info("settings saved", "enabled", updated.Enabled, "profile", updated.Profile)
	}
	return updated, nil
}

package models

import "strings"

// Category names shipped with the default settings document.
const (
	CategoryAdult    = "Adult"
	CategoryGambling = "Gambling"
	CategoryDrugs    = "Drugs"
	CategoryViolence = "Violence"
	CategorySelfHarm = "SelfHarm"

	// CategoryCustom labels verdicts produced by the parent's own block list.
	CategoryCustom = "Custom"
)

// DefaultProfile is the informational profile tag of a fresh install.
const DefaultProfile = "preteen"

// SafeSearch holds the search engine enforcement switches
type SafeSearch struct {
	Enabled bool `json:"enabled"`
	// YouTubeRestrictedMode is stored but not enforced yet.
	YouTubeRestrictedMode bool `json:"youtube_restricted_mode"`
}

// Settings is the whole policy document. It is read and written as one value.
type Settings struct {
	Enabled           bool                `json:"enabled"`
	Profile           string              `json:"profile"`
	PinHash           string              `json:"pin_hash,omitempty"` // empty = no PIN required
	AllowList         []string            `json:"allow_list"`
	BlockList         []string            `json:"block_list"`
	Approvals         map[string]Approval `json:"approvals"`
	EnabledCategories map[string]bool     `json:"enabled_categories"`
	CategoryLists     map[string][]string `json:"category_lists"`
	SafeSearch        SafeSearch          `json:"safe_search"`
	AccessRequests    []AccessRequest     `json:"access_requests"` // newest first
}

// DefaultSettings returns the document materialized on first access
func DefaultSettings() *Settings {
	categories := []string{CategoryAdult, CategoryGambling, CategoryDrugs, CategoryViolence, CategorySelfHarm}
	s := &Settings{
		Enabled:           true,
		Profile:           DefaultProfile,
		AllowList:         []string{},
		BlockList:         []string{},
		Approvals:         make(map[string]Approval),
		EnabledCategories: make(map[string]bool, len(categories)),
		CategoryLists:     make(map[string][]string, len(categories)),
		SafeSearch:        SafeSearch{Enabled: true},
		AccessRequests:    []AccessRequest{},
	}
	for _, c := range categories {
		s.EnabledCategories[c] = true
		s.CategoryLists[c] = []string{"example-" + strings.ToLower(c) + ".test"}
	}
	return s
}

// HasPin reports whether a parent PIN digest is stored
func (s *Settings) HasPin() bool {
	return s.PinHash != ""
}

// CategoryEnabled reports whether a category is active.
// Categories are enabled unless explicitly switched off.
func (s *Settings) CategoryEnabled(name string) bool {
	enabled, ok := s.EnabledCategories[name]
	return !ok || enabled
}

// Normalize fills nil collections so a decoded document behaves like a default one
func (s *Settings) Normalize() {
	if s.AllowList == nil {
		s.AllowList = []string{}
	}
	if s.BlockList == nil {
		s.BlockList = []string{}
	}
	if s.Approvals == nil {
		s.Approvals = make(map[string]Approval)
	}
	if s.EnabledCategories == nil {
		s.EnabledCategories = make(map[string]bool)
	}
	if s.CategoryLists == nil {
		s.CategoryLists = make(map[string][]string)
	}
	if s.AccessRequests == nil {
		s.AccessRequests = []AccessRequest{}
	}
}

// Clone returns a deep copy so callers can mutate without touching a shared snapshot
func (s *Settings) Clone() *Settings {
	c := *s
	c.AllowList = append([]string{}, s.AllowList...)
	c.BlockList = append([]string{}, s.BlockList...)

	c.Approvals = make(map[string]Approval, len(s.Approvals))
	for k, v := range s.Approvals {
		c.Approvals[k] = v
	}

	c.EnabledCategories = make(map[string]bool, len(s.EnabledCategories))
	for k, v := range s.EnabledCategories {
		c.EnabledCategories[k] = v
	}

	c.CategoryLists = make(map[string][]string, len(s.CategoryLists))
	for k, v := range s.CategoryLists {
		c.CategoryLists[k] = append([]string{}, v...)
	}

	c.AccessRequests = append([]AccessRequest{}, s.AccessRequests...)
	return &c
}

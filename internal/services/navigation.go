package services

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"kindklick/internal/filter"
	"kindklick/internal/metrics"
	"kindklick/internal/models"
	"kindklick/internal/storage"
)

// DefaultBlockPage is where blocked navigations are sent
const DefaultBlockPage = "/blocked"

// ActionKind is what the caller should do with a navigation
type ActionKind string

const (
	ActionNone     ActionKind = "none"
	ActionRedirect ActionKind = "redirect"
)

// NavigationEvent is a top-level or frame navigation about to commit
type NavigationEvent struct {
	TabID   int    `json:"tab_id"`
	FrameID int    `json:"frame_id"`
	URL     string `json:"url"`
}

// NavigationAction is the decision for one NavigationEvent
type NavigationAction struct {
	Kind       ActionKind      `json:"action"`
	URL        string          `json:"url,omitempty"`
	Engine     string          `json:"engine,omitempty"`
	Verdict    *models.Verdict `json:"verdict,omitempty"`
	TabID      int             `json:"tab_id"`
	SafeSearch bool            `json:"safe_search,omitempty"`
}

// Navigator turns navigation events into redirect decisions
type Navigator struct {
	store     *storage.Store
	blockPage string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewNavigator creates a new Navigator
func NewNavigator(store *storage.Store, blockPage string, logger *slog.Logger, m *metrics.Metrics) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	if blockPage == "" {
		blockPage = DefaultBlockPage
	}
	return &Navigator{
		store:     store,
		blockPage: blockPage,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Evaluate judges rawURL against the current settings
func (n *Navigator) Evaluate(ctx context.Context, rawURL string) (models.Verdict, error) {
	settings, err := n.store.Snapshot(ctx)
	if err != nil {
		return models.Verdict{}, err
	}
	v := filter.Evaluate(rawURL, settings, n.now())
	n.metrics.ObserveVerdict(v)
	return v, nil
}

// HandleNavigation decides what happens to a navigation. Sub-frames,
// unparseable URLs and a disabled filter all pass through untouched.
// Safe-search rewrites run before evaluation.
func (n *Navigator) HandleNavigation(ctx context.Context, ev NavigationEvent) (NavigationAction, error) {
	none := NavigationAction{Kind: ActionNone, TabID: ev.TabID}
	if ev.FrameID != 0 {
		return none, nil
	}

	target := filter.NormalizeURL(ev.URL)
	if target == "" {
		return none, nil
	}

	settings, err := n.store.Snapshot(ctx)
	if err != nil {
		return none, err
	}
	if !settings.Enabled {
		return none, nil
	}

	if redirect, ok := filter.RewriteSafeSearch(target, settings); ok && redirect.URL != target {
		n.metrics.ObserveRedirect(redirect.Engine)
		n.logger.Debug("safe search enforced", "tab", ev.TabID, "engine", redirect.Engine)
		return NavigationAction{
			Kind:       ActionRedirect,
			URL:        redirect.URL,
			Engine:     redirect.Engine,
			TabID:      ev.TabID,
			SafeSearch: true,
		}, nil
	}

	v := filter.Evaluate(target, settings, n.now())
	n.metrics.ObserveVerdict(v)
	if !v.Blocked() {
		none.Verdict = &v
		return none, nil
	}

	n.logger.Info("navigation blocked", "tab", ev.TabID, "domain", v.Domain, "rule", v.Rule, "category", v.Category)
	return NavigationAction{
		Kind:    ActionRedirect,
		URL:     BlockPageURL(n.blockPage, target, v),
		Verdict: &v,
		TabID:   ev.TabID,
	}, nil
}

// BlockPageURL builds the block page address carrying the verdict details
func BlockPageURL(base, target string, v models.Verdict) string {
	category := v.Category
	if category == "" {
		category = "Unknown"
	}
	rule := string(v.Rule)
	if rule == "" {
		rule = "rule"
	}

	u, err := url.Parse(base)
	if err != nil {
		u = &url.URL{Path: DefaultBlockPage}
	}
	q := u.Query()
	q.Set("url", target)
	q.Set("domain", v.Domain)
	q.Set("reason", v.Explain())
	q.Set("category", category)
	q.Set("rule", rule)
	u.RawQuery = q.Encode()
	return u.String()
}

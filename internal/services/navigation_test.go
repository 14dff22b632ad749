package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"kindklick/internal/models"
	"kindklick/internal/storage"
)

func newTestNavigator(t *testing.T, edit func(*models.Settings)) (*Navigator, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	store := storage.New(backend, nil)
	if edit != nil {
		if _, err := store.Update(context.Background(), func(s *models.Settings) error {
			edit(s)
			return nil
		}); err != nil {
			t.Fatalf("seed settings: %v", err)
		}
	}
	nav := NewNavigator(store, "", nil, nil)
	nav.now = func() time.Time { return testNow }
	return nav, backend
}

func TestNavigator_HandleNavigation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		edit     func(*models.Settings)
		ev       NavigationEvent
		kind     ActionKind
		safe     bool
		redirect string
	}{
		{
			name: "allowed page",
			ev:   NavigationEvent{TabID: 1, URL: "https://example.org/"},
			kind: ActionNone,
		},
		{
			name: "subframe ignored",
			ev:   NavigationEvent{TabID: 1, FrameID: 3, URL: "https://example-adult.test/"},
			kind: ActionNone,
		},
		{
			name: "non-http ignored",
			ev:   NavigationEvent{TabID: 1, URL: "chrome://settings"},
			kind: ActionNone,
		},
		{
			name: "disabled filter",
			edit: func(s *models.Settings) { s.Enabled = false },
			ev:   NavigationEvent{TabID: 1, URL: "https://example-adult.test/"},
			kind: ActionNone,
		},
		{
			name:     "safe search first",
			ev:       NavigationEvent{TabID: 2, URL: "https://www.google.com/search?q=cats"},
			kind:     ActionRedirect,
			safe:     true,
			redirect: "https://www.google.com/search?q=cats&safe=active",
		},
		{
			name: "already safe",
			ev:   NavigationEvent{TabID: 2, URL: "https://www.google.com/search?q=cats&safe=active"},
			kind: ActionNone,
		},
		{
			name: "category blocked",
			ev:   NavigationEvent{TabID: 4, URL: "https://example-adult.test/page"},
			kind: ActionRedirect,
		},
		{
			name: "approved domain",
			edit: func(s *models.Settings) {
				s.Approvals["example-adult.test"] = models.NewTemporaryApproval("example-adult.test", testNow, time.Minute)
			},
			ev:   NavigationEvent{TabID: 4, URL: "https://example-adult.test/page"},
			kind: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nav, _ := newTestNavigator(t, tt.edit)
			act, err := nav.HandleNavigation(context.Background(), tt.ev)
			if err != nil {
				t.Fatalf("HandleNavigation: %v", err)
			}
			if act.Kind != tt.kind {
				t.Fatalf("Kind = %q, want %q", act.Kind, tt.kind)
			}
			if act.TabID != tt.ev.TabID {
				t.Errorf("TabID = %d, want %d", act.TabID, tt.ev.TabID)
			}
			if act.SafeSearch != tt.safe {
				t.Errorf("SafeSearch = %v, want %v", act.SafeSearch, tt.safe)
			}
			if tt.redirect != "" && act.URL != tt.redirect {
				t.Errorf("URL = %q, want %q", act.URL, tt.redirect)
			}
		})
	}
}

func TestNavigator_BlockPageParams(t *testing.T) {
	t.Parallel()

	nav, _ := newTestNavigator(t, func(s *models.Settings) {
		s.BlockList = []string{"bad.test"}
	})

	act, err := nav.HandleNavigation(context.Background(), NavigationEvent{URL: "https://www.bad.test/x?y=1"})
	if err != nil {
		t.Fatalf("HandleNavigation: %v", err)
	}
	if act.Kind != ActionRedirect || act.Verdict == nil || !act.Verdict.Blocked() {
		t.Fatalf("expected block redirect, got %+v", act)
	}

	u, err := url.Parse(act.URL)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if u.Path != DefaultBlockPage {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	want := map[string]string{
		"url":      "https://www.bad.test/x?y=1",
		"domain":   "bad.test",
		"reason":   "Custom blocklist",
		"category": "Custom",
		"rule":     "custom_blocklist",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestBlockPageURL_Defaults(t *testing.T) {
	t.Parallel()

	got := BlockPageURL("https://block.example/page?lang=en", "https://x.test/", models.Verdict{
		Action: models.ActionBlock,
		Domain: "x.test",
	})
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("category") != "Unknown" || q.Get("rule") != "rule" {
		t.Errorf("defaults not applied: %s", got)
	}
	if q.Get("lang") != "en" || u.Host != "block.example" {
		t.Errorf("base URL not preserved: %s", got)
	}
}

func TestNavigator_StorageFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	nav, backend := newTestNavigator(t, func(s *models.Settings) {
		s.BlockList = []string{"bad.test"}
	})
	// Warm the last-known-good snapshot, then break the backend.
	if _, err := nav.Evaluate(ctx, "https://bad.test/"); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("disk on fire")
	backend.SetErrors(boom, boom)

	act, err := nav.HandleNavigation(ctx, NavigationEvent{URL: "https://bad.test/"})
	if err != nil {
		t.Fatalf("expected fallback to last snapshot, got %v", err)
	}
	if act.Kind != ActionRedirect {
		t.Errorf("Kind = %q, want redirect from cached settings", act.Kind)
	}
}

func TestNavigator_StorageFailureWithoutSnapshot(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemoryBackend()
	boom := errors.New("unavailable")
	backend.SetErrors(boom, boom)
	nav := NewNavigator(storage.New(backend, nil), "", nil, nil)

	_, err := nav.HandleNavigation(context.Background(), NavigationEvent{URL: "https://a.test/"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestNavigator_Evaluate(t *testing.T) {
	t.Parallel()

	nav, _ := newTestNavigator(t, nil)
	v, err := nav.Evaluate(context.Background(), "https://example-gambling.test/")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !v.Blocked() || v.Category != models.CategoryGambling {
		t.Errorf("verdict = %+v", v)
	}
}

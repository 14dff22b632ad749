package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kindklick/internal/models"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestApprovals(t *testing.T) (*ApprovalService, *Gate) {
	t.Helper()
	store := newTestStore(t)
	gate := newTestGate(t, store)
	svc := NewApprovalService(store, gate, nil, nil, 0)
	svc.now = func() time.Time { return testNow }
	return svc, gate
}

func TestApprovalService_GrantTemporaryDefault(t *testing.T) {
	t.Parallel()

	svc, _ := newTestApprovals(t)
	a, err := svc.Grant(context.Background(), GrantRequest{Domain: "WWW.Example.com"}, Credentials{})
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if a.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", a.Domain)
	}
	if a.Mode != models.ApprovalTemporary {
		t.Errorf("Mode = %q", a.Mode)
	}
	if want := testNow.Add(DefaultApprovalMinutes * time.Minute); !a.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", a.ExpiresAt, want)
	}
	if !a.ExpiresAt.After(a.CreatedAt) {
		t.Error("expiry must be in the future at creation")
	}
}

func TestApprovalService_GrantModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       GrantRequest
		permanent bool
		duration  time.Duration
	}{
		{"explicit minutes", GrantRequest{Domain: "a.test", DurationMinutes: 30}, false, 30 * time.Minute},
		{"negative minutes", GrantRequest{Domain: "a.test", DurationMinutes: -5}, false, 10 * time.Minute},
		{"unknown mode", GrantRequest{Domain: "a.test", DurationMinutes: 5, Mode: "forever"}, false, 5 * time.Minute},
		{"always", GrantRequest{Domain: "a.test", Mode: models.ApprovalAlways}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestApprovals(t)
			a, err := svc.Grant(context.Background(), tt.req, Credentials{})
			if err != nil {
				t.Fatalf("Grant: %v", err)
			}
			if a.IsPermanent() != tt.permanent {
				t.Fatalf("IsPermanent = %v, want %v", a.IsPermanent(), tt.permanent)
			}
			if !tt.permanent && a.Remaining(testNow) != tt.duration {
				t.Errorf("Remaining = %v, want %v", a.Remaining(testNow), tt.duration)
			}
			if tt.permanent && a.Expired(testNow.AddDate(20, 0, 0)) {
				t.Error("permanent approval expired")
			}
		})
	}
}

func TestApprovalService_GrantEmptyDomain(t *testing.T) {
	t.Parallel()

	svc, _ := newTestApprovals(t)
	a, err := svc.Grant(context.Background(), GrantRequest{Domain: "  "}, Credentials{})
	if err != nil || a != nil {
		t.Fatalf("Grant empty = %v, %v; want nil, nil", a, err)
	}
	list, _ := svc.List(context.Background())
	if len(list) != 0 {
		t.Errorf("empty domain was stored: %v", list)
	}
}

func TestApprovalService_GrantOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestApprovals(t)
	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test", DurationMinutes: 5}, Credentials{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test", Mode: models.ApprovalAlways}, Credentials{}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || !list[0].IsPermanent() {
		t.Errorf("list = %+v, want single permanent approval", list)
	}
}

func TestApprovalService_GrantRequiresPin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, gate := newTestApprovals(t)
	if err := gate.SetPin(ctx, "1234", "1234", Credentials{}); err != nil {
		t.Fatalf("SetPin: %v", err)
	}

	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test"}, Credentials{}); !errors.Is(err, ErrPinRequired) {
		t.Fatalf("no PIN: got %v", err)
	}
	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test"}, Credentials{PIN: "0000"}); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("wrong PIN: got %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("rejected grant changed state: %v", list)
	}

	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test"}, Credentials{PIN: "1234"}); err != nil {
		t.Fatalf("right PIN: %v", err)
	}
}

func TestApprovalService_SweepExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestApprovals(t)

	for _, req := range []GrantRequest{
		{Domain: "short.test", DurationMinutes: 1},
		{Domain: "edge.test", DurationMinutes: 10},
		{Domain: "long.test", DurationMinutes: 60},
		{Domain: "forever.test", Mode: models.ApprovalAlways},
	} {
		if _, err := svc.Grant(ctx, req, Credentials{}); err != nil {
			t.Fatalf("Grant %s: %v", req.Domain, err)
		}
	}

	survivors := func() map[string][]byte {
		t.Helper()
		list, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		out := make(map[string][]byte)
		for _, a := range list {
			if a.Domain != "long.test" && a.Domain != "forever.test" {
				continue
			}
			raw, err := json.Marshal(a)
			if err != nil {
				t.Fatal(err)
			}
			out[a.Domain] = raw
		}
		return out
	}
	before := survivors()
	if len(before) != 2 {
		t.Fatalf("before sweep = %d survivors, want 2", len(before))
	}

	// Exactly at edge.test's expiry: it counts as expired.
	svc.now = func() time.Time { return testNow.Add(10 * time.Minute) }

	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}

	list, _ := svc.List(ctx)
	got := make([]string, 0, len(list))
	for _, a := range list {
		got = append(got, a.Domain)
	}
	if fmt.Sprint(got) != "[forever.test long.test]" {
		t.Errorf("remaining = %v", got)
	}
	after := survivors()
	for domain, raw := range before {
		if !bytes.Equal(after[domain], raw) {
			t.Errorf("%s changed by sweep:\n before %s\n after  %s", domain, raw, after[domain])
		}
	}

	n, err = svc.SweepExpired(ctx)
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d, %v; want 0, nil", n, err)
	}
}

func TestApprovalService_Revoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestApprovals(t)
	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test"}, Credentials{}); err != nil {
		t.Fatal(err)
	}

	found, err := svc.Revoke(ctx, "www.a.test", Credentials{})
	if err != nil || !found {
		t.Fatalf("Revoke = %v, %v", found, err)
	}
	found, err = svc.Revoke(ctx, "a.test", Credentials{})
	if err != nil || found {
		t.Fatalf("second Revoke = %v, %v", found, err)
	}
}

func TestApprovalService_ConcurrentGrants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestApprovals(t)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Grant(ctx, GrantRequest{Domain: fmt.Sprintf("site%d.test", i)}, Credentials{}); err != nil {
				t.Errorf("Grant %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	list, _ := svc.List(ctx)
	if len(list) != 4 {
		t.Errorf("lost grants: have %d approvals, want 4", len(list))
	}
}

func TestSweeper_StartSweepsImmediately(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestApprovals(t)
	if _, err := svc.Grant(ctx, GrantRequest{Domain: "a.test", DurationMinutes: 1}, Credentials{}); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return testNow.Add(time.Hour) }

	sw := NewSweeper(svc, "", nil)
	if err := sw.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sw.Stop()

	if err := sw.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("startup sweep left %v", list)
	}
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	t.Parallel()

	svc, _ := newTestApprovals(t)
	sw := NewSweeper(svc, "not a schedule", nil)
	if err := sw.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
	sw.Stop()
}

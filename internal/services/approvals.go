package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"kindklick/internal/filter"
	"kindklick/internal/metrics"
	"kindklick/internal/models"
	"kindklick/internal/storage"
)

// DefaultApprovalMinutes is used when a grant carries no positive duration
const DefaultApprovalMinutes = 10

// GrantRequest describes a parent approval to record
type GrantRequest struct {
	Domain          string              `json:"domain"`
	DurationMinutes int                 `json:"duration_minutes"`
	Mode            models.ApprovalMode `json:"mode"`
}

// UnmarshalJSON accepts durationMinutes as well as duration_minutes
func (g *GrantRequest) UnmarshalJSON(data []byte) error {
	type grantRequest GrantRequest
	if err := json.Unmarshal(data, (*grantRequest)(g)); err != nil {
		return err
	}
	return camelMinutes(data, &g.DurationMinutes)
}

// ApprovalService manages parent approvals
type ApprovalService struct {
	store          *storage.Store
	gate           *Gate
	logger         *slog.Logger
	metrics        *metrics.Metrics
	defaultMinutes int
	now            func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(store *storage.Store, gate *Gate, logger *slog.Logger, m *metrics.Metrics, defaultMinutes int) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultMinutes <= 0 {
		defaultMinutes = DefaultApprovalMinutes
	}
	return &ApprovalService{
		store:          store,
		gate:           gate,
		logger:         logger,
		metrics:        m,
		defaultMinutes: defaultMinutes,
		now:            time.Now,
	}
}

// Grant records an approval for req.Domain, replacing any existing one.
// An empty domain is ignored and yields a nil approval.
func (a *ApprovalService) Grant(ctx context.Context, req GrantRequest, creds Credentials) (*models.Approval, error) {
	domain := filter.DomainKey(req.Domain)
	if domain == "" {
		return nil, nil
	}

	now := a.now()
	mode := models.ParseApprovalMode(string(req.Mode))

	var approval models.Approval
	if mode == models.ApprovalAlways {
		approval = models.NewPermanentApproval(domain, now)
	} else {
		minutes := req.DurationMinutes
		if minutes <= 0 {
			minutes = a.defaultMinutes
		}
		approval = models.NewTemporaryApproval(domain, now, time.Duration(minutes)*time.Minute)
	}

	_, err := a.store.Update(ctx, func(s *models.Settings) error {
		if err := a.gate.Authorize(s, creds); err != nil {
			return err
		}
		s.Approvals[domain] = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.metrics.ObserveGrant(mode)
	if approval.IsPermanent() {
		a.logger.Info("approval granted", "domain", domain, "mode", mode)
	} else {
		a.logger.Info("approval granted", "domain", domain, "mode", mode, "expires_at", approval.ExpiresAt)
	}
	return &approval, nil
}

// SweepExpired deletes every expired approval and returns how many went
func (a *ApprovalService) SweepExpired(ctx context.Context) (int, error) {
	now := a.now()
	removed := 0

	_, err := a.store.Update(ctx, func(s *models.Settings) error {
		removed = 0
		for domain, approval := range s.Approvals {
			if approval.Expired(now) {
				delete(s.Approvals, domain)
				removed++
			}
		}
		if removed == 0 {
			return storage.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		a.metrics.ObserveSwept(removed)
		a.logger.Info("expired approvals removed", "count", removed)
	}
	return removed, nil
}

// Revoke removes the approval for domain. It reports whether one existed.
func (a *ApprovalService) Revoke(ctx context.Context, domain string, creds Credentials) (bool, error) {
	key := filter.DomainKey(domain)
	if key == "" {
		return false, nil
	}

	found := false
	_, err := a.store.Update(ctx, func(s *models.Settings) error {
		if err := a.gate.Authorize(s, creds); err != nil {
			return err
		}
		_, found = s.Approvals[key]
		if !found {
			return storage.ErrNoChange
		}
		delete(s.Approvals, key)
		return nil
	})
	if err != nil {
		return false, err
	}

	if found {
		a.logger.Info("approval revoked", "domain", key)
	}
	return found, nil
}

// List returns all stored approvals ordered by domain, expired ones included
func (a *ApprovalService) List(ctx context.Context) ([]models.Approval, error) {
	s, err := a.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Approval, 0, len(s.Approvals))
	for domain, approval := range s.Approvals {
		approval.Domain = domain
		out = append(out, approval)
	}
	slices.SortFunc(out, func(x, y models.Approval) int {
		return strings.Compare(x.Domain, y.Domain)
	})
	return out, nil
}

// Now returns the service clock
func (a *ApprovalService) Now() time.Time {
	return a.now()
}

// IsAuthError reports whether err came from the PIN gate
func IsAuthError(err error) bool {
	return errors.Is(err, ErrPinRequired) || errors.Is(err, ErrInvalidPin) || errors.Is(err, ErrInvalidToken)
}

package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"kindklick/internal/filter"
	"kindklick/internal/metrics"
	"kindklick/internal/models"
	"kindklick/internal/storage"
)

// AccessRequestInput is what the block page submits
type AccessRequestInput struct {
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
}

// RequestService records child access requests
type RequestService struct {
	store   *storage.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	limit   int
	now     func() time.Time
}

// NewRequestService creates a new RequestService keeping at most limit entries
func NewRequestService(store *storage.Store, logger *slog.Logger, m *metrics.Metrics, limit int) *RequestService {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = models.MaxAccessRequests
	}
	return &RequestService{
		store:   store,
		logger:  logger,
		metrics: m,
		limit:   limit,
		now:     time.Now,
	}
}

// Record prepends a pending request to the log. The domain falls back to
// the one derived from the URL.
func (r *RequestService) Record(ctx context.Context, in AccessRequestInput) (models.AccessRequest, error) {
	domain := filter.DomainKey(in.Domain)
	if domain == "" {
		domain = filter.ExtractDomain(in.URL)
	}

	req := models.AccessRequest{
		ID:       uuid.NewString(),
		Ts:       r.now().UTC(),
		URL:      strings.TrimSpace(in.URL),
		Domain:   domain,
		Category: strings.TrimSpace(in.Category),
		Status:   models.RequestPending,
	}

	_, err := r.store.Update(ctx, func(s *models.Settings) error {
		s.AccessRequests = models.PrependRequest(s.AccessRequests, req, r.limit)
		return nil
	})
	if err != nil {
		return models.AccessRequest{}, err
	}

	r.metrics.ObserveAccessRequest()
	r.logger.Info("access requested", "id", req.ID, "domain", req.Domain, "category", req.Category)
	return req, nil
}

// List returns the stored requests, newest first
func (r *RequestService) List(ctx context.Context) ([]models.AccessRequest, error) {
	s, err := r.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return s.AccessRequests, nil
}

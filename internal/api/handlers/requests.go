package handlers

import (
	"log/slog"
	"net/http"

	"kindklick/internal/services"
)

// RequestsHandler lists access requests
type RequestsHandler struct {
	requests *services.RequestService
	logger   *slog.Logger
}

// NewRequestsHandler creates a new RequestsHandler
func NewRequestsHandler(requests *services.RequestService, logger *slog.Logger) *RequestsHandler {
	return &RequestsHandler{requests: requests, logger: logger}
}

// HandleList returns access requests, newest first
func (h *RequestsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.List(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, list)
}

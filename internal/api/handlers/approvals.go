package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kindklick/internal/api/middleware"
	"kindklick/internal/models"
	"kindklick/internal/services"
)

// ApprovalView adds liveness details to a stored approval
type ApprovalView struct {
	models.Approval
	Active           bool  `json:"active"`
	RemainingSeconds int64 `json:"remaining_seconds"` // -1 for permanent
}

func newApprovalView(a models.Approval, now time.Time) ApprovalView {
	remaining := a.Remaining(now)
	seconds := int64(-1)
	if remaining >= 0 {
		seconds = int64(remaining / time.Second)
	}
	return ApprovalView{Approval: a, Active: a.Active(now), RemainingSeconds: seconds}
}

// ApprovalsHandler handles approval endpoints
type ApprovalsHandler struct {
	approvals *services.ApprovalService
	logger    *slog.Logger
}

// NewApprovalsHandler creates a new ApprovalsHandler
func NewApprovalsHandler(approvals *services.ApprovalService, logger *slog.Logger) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals, logger: logger}
}

// HandleList returns every stored approval
func (h *ApprovalsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.approvals.List(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	now := h.approvals.Now()
	views := make([]ApprovalView, 0, len(list))
	for _, a := range list {
		views = append(views, newApprovalView(a, now))
	}
	JSON(w, http.StatusOK, views)
}

// grantBody is a GrantRequest that may also carry the PIN
type grantBody struct {
	services.GrantRequest
	PIN string `json:"pin"`
}

// UnmarshalJSON decodes both halves; the embedded decoder would otherwise
// swallow the whole body and drop the PIN.
func (b *grantBody) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &b.GrantRequest); err != nil {
		return err
	}
	var pin struct {
		PIN string `json:"pin"`
	}
	if err := json.Unmarshal(data, &pin); err != nil {
		return err
	}
	b.PIN = pin.PIN
	return nil
}

// HandleGrant records a new approval
func (h *ApprovalsHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var body grantBody
	if err := ParseJSON(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	creds := middleware.GetCredentials(r)
	if creds.PIN == "" {
		creds.PIN = body.PIN
	}

	a, err := h.approvals.Grant(r.Context(), body.GrantRequest, creds)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if a == nil {
		Error(w, http.StatusBadRequest, "domain is required")
		return
	}
	JSON(w, http.StatusCreated, newApprovalView(*a, h.approvals.Now()))
}

// HandleRevoke deletes the approval for {domain}
func (h *ApprovalsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	found, err := h.approvals.Revoke(r.Context(), domain, middleware.GetCredentials(r))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if !found {
		Error(w, http.StatusNotFound, "approval not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep removes expired approvals now
func (h *ApprovalsHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.approvals.SweepExpired(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true, "removed": n})
}

package handlers

import (
	"log/slog"
	"net/http"

	"kindklick/internal/api/middleware"
	"kindklick/internal/services"
)

// AuthHandler handles PIN management and unlock endpoints
type AuthHandler struct {
	gate   *services.Gate
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(gate *services.Gate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, logger: logger}
}

// SetPinRequest represents the set/change PIN body
type SetPinRequest struct {
	Pin        string `json:"pin"`
	Confirm    string `json:"confirm"`
	CurrentPin string `json:"current_pin"`
}

// UnlockRequest represents the unlock body
type UnlockRequest struct {
	Pin string `json:"pin"`
}

// HandleSetPin sets or changes the parent PIN
func (h *AuthHandler) HandleSetPin(w http.ResponseWriter, r *http.Request) {
	var req SetPinRequest
	if err := ParseJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	creds := middleware.GetCredentials(r)
	if req.CurrentPin != "" {
		creds.PIN = req.CurrentPin
	}

	if err := h.gate.SetPin(r.Context(), req.Pin, req.Confirm, creds); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleClearPin removes the parent PIN
func (h *AuthHandler) HandleClearPin(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.ClearPin(r.Context(), middleware.GetCredentials(r)); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleUnlock exchanges the PIN for an unlock token
func (h *AuthHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := ParseJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tok, err := h.gate.Unlock(r.Context(), req.Pin)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, tok)
}

// HandleCheck reports whether the request's credentials pass the gate
func (h *AuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Check(r.Context(), middleware.GetCredentials(r)); err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true})
}

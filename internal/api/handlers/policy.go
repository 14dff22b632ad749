package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"kindklick/internal/api/middleware"
	"kindklick/internal/services"
)

// PolicyHandler serves the message contract and navigation decisions
type PolicyHandler struct {
	dispatcher *services.Dispatcher
	navigator  *services.Navigator
	logger     *slog.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(dispatcher *services.Dispatcher, navigator *services.Navigator, logger *slog.Logger) *PolicyHandler {
	return &PolicyHandler{dispatcher: dispatcher, navigator: navigator, logger: logger}
}

// HandleMessage processes one typed UI message
func (h *PolicyHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var msg services.Message
	if err := ParseJSON(w, r, &msg); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), msg, middleware.GetCredentials(r))
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("message failed", "type", msg.Type, "error", err)
			resp.Error = "internal error"
		}
		JSON(w, status, resp)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// HandleNavigate decides what to do with a navigation event
func (h *PolicyHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var ev services.NavigationEvent
	if err := ParseJSON(w, r, &ev); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := h.navigator.HandleNavigation(r.Context(), ev)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, action)
}

// HandleEvaluate returns the verdict for ?url= without side effects
func (h *PolicyHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		Error(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	v, err := h.navigator.Evaluate(r.Context(), rawURL)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, v)
}

package handlers

import (
	"log/slog"
	"net/http"

	"kindklick/internal/api/middleware"
	"kindklick/internal/models"
	"kindklick/internal/services"
)

// SettingsView is the settings document as exposed over HTTP. The PIN
// digest is replaced by a flag.
type SettingsView struct {
	*models.Settings
	HasPin bool `json:"has_pin"`
}

// NewSettingsView hides the PIN digest of s
func NewSettingsView(s *models.Settings) SettingsView {
	c := s.Clone()
	hasPin := c.HasPin()
	c.PinHash = ""
	return SettingsView{Settings: c, HasPin: hasPin}
}

// SettingsHandler handles settings endpoints
type SettingsHandler struct {
	settings *services.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// HandleGet returns the current settings
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, NewSettingsView(s))
}

// HandleSave applies a partial update
func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var patch services.SettingsPatch
	if err := ParseJSON(w, r, &patch); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.settings.Save(r.Context(), patch, middleware.GetCredentials(r))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, NewSettingsView(s))
}

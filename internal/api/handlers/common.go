package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kindklick/internal/services"
	"kindklick/internal/storage"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response in the {ok, error} envelope
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"ok": false, "error": message})
}

// ParseJSON decodes JSON from request body
func ParseJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// StatusFor maps a service error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrPinRequired):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidPin), errors.Is(err, services.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, services.ErrPinTooShort),
		errors.Is(err, services.ErrPinMismatch),
		errors.Is(err, services.ErrUnknownMessage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoPinSet), errors.Is(err, storage.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError writes err with its mapped status. Internal errors are
// logged and replaced by a generic message.
func ServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		Error(w, status, "internal error")
		return
	}
	Error(w, status, err.Error())
}

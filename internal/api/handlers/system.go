package handlers

import (
	"net/http"
	"runtime"
	"time"
)

// SystemHandler reports process health
type SystemHandler struct {
	version   string
	backend   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version, backend string) *SystemHandler {
	return &SystemHandler{
		version:   version,
		backend:   backend,
		startTime: time.Now(),
	}
}

// HealthResponse represents liveness details
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Storage       string `json:"storage"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	GoRoutines    int    `json:"go_routines"`
}

// HandleHealth reports that the process is up
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       h.version,
		Storage:       h.backend,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		GoRoutines:    runtime.NumGoroutine(),
	})
}

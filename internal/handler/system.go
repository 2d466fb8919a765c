package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
)

// SystemHandler serves the health endpoints.
type SystemHandler struct {
	store   *store.Store
	version string
	logger  *slog.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(s *store.Store, version string, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{store: s, version: version, logger: logger}
}

// Health handles GET /api/health. It reports 503 when the database is
// unreachable so load balancers take the instance out of rotation.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check: database unreachable", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, model.APIResponse{
		Success: code == http.StatusOK,
		Data: map[string]interface{}{
			"status":    status,
			"version":   h.version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Healthz handles GET /healthz, the bare liveness probe.
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

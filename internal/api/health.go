package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store      Pinger
	configured func() bool
}

// NewHealthHandler creates a health handler. configured reports whether
// the intent resolver is wired; it may be nil.
func NewHealthHandler(store Pinger, configured func() bool) *HealthHandler {
	return &HealthHandler{store: store, configured: configured}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["sessions"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = "ok"
	}

	if h.configured != nil {
		if h.configured() {
			checks["llm"] = "ok"
		} else {
			checks["llm"] = "not_configured"
		}
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}

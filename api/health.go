package api

import (
	"net/http"

	"github.com/koopa0/autodraft/internal/log"
	"github.com/koopa0/autodraft/internal/retrieval"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry *retrieval.Registry
	logger   log.Logger
}

// NewHealthHandler creates a health handler. The registry backs the
// readiness check.
func NewHealthHandler(registry *retrieval.Registry, logger log.Logger) *HealthHandler {
	return &HealthHandler{registry: registry, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.registry == nil {
		http.Error(w, "retrieval registry not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"global_chunks": h.registry.Count(""),
	})
}

package transport

import (
	"net/http"

	"bot-dashboard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	ServiceName    = "bot-dashboard"
	ServiceVersion = "1.0.0"
)

// HealthChecker reports the state of a backing store
type HealthChecker interface {
	Health() map[string]string
}

// HealthHandler serves the liveness and service info endpoints
type HealthHandler struct {
	store HealthChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// RegisterRoutes registers / and /health
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Info)
	r.Get("/health", h.Health)
}

// Info describes the running service
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Bot Dashboard API",
		"version": ServiceVersion,
	})
}

// Health reports service and database status; a down database yields 503
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := h.store.Health()

	status, code := "healthy", http.StatusOK
	if database["status"] == "down" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	middleware.RespondWithJSON(w, code, map[string]interface{}{
		"status":   status,
		"service":  ServiceName,
		"database": database,
	})
}

// MemoryHealth reports the in-process store as always up
type MemoryHealth struct{}

func (MemoryHealth) Health() map[string]string {
	return map[string]string{"status": "up", "driver": "memory"}
}

package handler

import (
	"net/http"
	"time"

	"entauth/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Stores    map[string]string `json:"stores"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	status := "healthy"
	stores := map[string]string{
		"redis":    "ok",
		"postgres": "ok",
	}

	if err := h.container.RedisClient.Health(r.Context()); err != nil {
		log.WithError(err).Warn("Redis health check failed")
		stores["redis"] = "unavailable"
		status = "degraded"
	}
	if err := h.container.DB.Health(r.Context()); err != nil {
		log.WithError(err).Warn("Database health check failed")
		stores["postgres"] = "unavailable"
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   "entauth",
		Stores:    stores,
	}, log)
}

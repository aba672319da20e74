package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/chainsight/chainsight/internal/models"
)

const version = "1.0.0"

// Pinger is implemented by stores that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with optional dependency checks
type HealthHandler struct {
	store        Pinger
	modelEnabled bool
}

func NewHealthHandler(store Pinger, modelEnabled bool) *HealthHandler {
	return &HealthHandler{store: store, modelEnabled: modelEnabled}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Use a short timeout for health checks so they don't block
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			checks["datastore"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["datastore"] = "ok"
		}
	} else {
		checks["datastore"] = "disabled"
	}

	if h.modelEnabled {
		checks["model"] = "configured"
	} else {
		checks["model"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}

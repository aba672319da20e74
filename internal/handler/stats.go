package handler

import (
	"net/http"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/pipeline"
	"github.com/chainsight/chainsight/internal/session"
)

// StatsHandler exposes pipeline counters for operability
type StatsHandler struct {
	pipeline *pipeline.Pipeline
	sessions *session.Manager
	executor *executor.Executor
}

func NewStatsHandler(p *pipeline.Pipeline, sessions *session.Manager, exec *executor.Executor) *StatsHandler {
	return &StatsHandler{pipeline: p, sessions: sessions, executor: exec}
}

// Stats handles GET /api/v1/stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"pipeline":      h.pipeline.Stats().Snapshot(),
		"sessions":      h.sessions.Len(),
		"cache_entries": h.executor.CacheLen(),
	})
}

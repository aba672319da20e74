package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/security"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

// ChainsHandler serves the chain catalogue and per-chain run history
type ChainsHandler struct {
	registry  *schema.Descriptor
	validator *security.SQLValidator
	executor  *executor.Executor
}

func NewChainsHandler(registry *schema.Descriptor, validator *security.SQLValidator, exec *executor.Executor) *ChainsHandler {
	return &ChainsHandler{registry: registry, validator: validator, executor: exec}
}

// List handles GET /api/v1/chains
func (h *ChainsHandler) List(w http.ResponseWriter, r *http.Request) {
	chains := h.registry.KnownChains()
	models.WriteJSON(w, http.StatusOK, models.ChainListResponse{
		Status: "success",
		Chains: chains,
		Count:  len(chains),
	})
}

// History handles GET /api/v1/chains/{chain_id}/history
func (h *ChainsHandler) History(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "chain_id")
	chainID, ok := h.registry.ResolveChain(raw)
	if !ok {
		models.WriteErrorKind(w, http.StatusNotFound, "UNKNOWN_CHAIN", "unknown chain: "+raw)
		return
	}

	sql, params := sqlgen.ChainHistory(chainID)
	// Run history statements through the same gate as question-driven queries.
	vr := h.validator.Validate(sqlgen.Candidate{
		Intent:     nlu.IntentStatusLookup,
		Entities:   nlu.Entities{ChainID: &chainID},
		SQL:        sql,
		Params:     params,
		Source:     sqlgen.SourceTemplate,
		Confidence: sqlgen.TemplateConfidence,
	})
	if vr.Verdict != security.VerdictAccept {
		models.WriteErrorKind(w, http.StatusInternalServerError, "VALIDATION_REJECTED", "history query rejected: "+string(vr.Reason))
		return
	}

	res, err := h.executor.Execute(r.Context(), vr.SanitizedSQL, vr.Params, vr.EffectiveRowLimit)
	if err != nil {
		models.WriteErrorKind(w, http.StatusInternalServerError, "EXECUTION_ERROR", "history query failed")
		return
	}

	models.WriteJSON(w, http.StatusOK, models.ChainHistoryResponse{
		Status:  "success",
		ChainID: chainID,
		Rows:    res.Rows,
		Metadata: models.QueryMetadata{
			RowCount:        len(res.Rows),
			Truncated:       res.Truncated,
			ExecutionTimeMs: res.ElapsedMs,
			ServedFromCache: res.FromCache,
		},
	})
}

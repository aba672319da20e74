package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/pipeline"
	"github.com/chainsight/chainsight/internal/security"
)

// AskHandler handles natural-language questions about chain execution
type AskHandler struct {
	pipeline *pipeline.Pipeline
	inputVal *security.InputValidator
}

func NewAskHandler(p *pipeline.Pipeline, inputVal *security.InputValidator) *AskHandler {
	return &AskHandler{pipeline: p, inputVal: inputVal}
}

// Ask handles POST /api/v1/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteErrorKind(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}

	if res := h.inputVal.Validate(req.Question); !res.Valid {
		models.WriteErrorKind(w, http.StatusBadRequest, "INVALID_REQUEST", res.Message)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	clock, err := req.Clock(time.Now())
	if err != nil {
		models.WriteErrorKind(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid evaluation_clock, expected RFC 3339: "+err.Error())
		return
	}

	resp := h.pipeline.Process(r.Context(), req.SessionID, req.Question, clock)
	models.WriteJSON(w, http.StatusOK, resp)
}

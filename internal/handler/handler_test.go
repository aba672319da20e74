package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/handler"
	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/pipeline"
	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/security"
	"github.com/chainsight/chainsight/internal/session"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

type fakeStore struct {
	rows []map[string]interface{}
}

func (f *fakeStore) Query(ctx context.Context, sql string, params ...interface{}) ([]map[string]interface{}, error) {
	return f.rows, nil
}
func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func newAskHandler(rows []map[string]interface{}) *handler.AskHandler {
	registry := schema.Default()
	p := pipeline.New(pipeline.Config{
		Classifier: nlu.NewClassifier(0.35),
		Extractor:  nlu.NewExtractor(registry),
		Sessions:   session.NewManager(20),
		Generator:  sqlgen.NewGenerator(registry, nil, 0.4),
		Validator:  security.NewSQLValidator(registry, 1000, 2, 1),
		Executor:   executor.New(&fakeStore{rows: rows}, time.Second, time.Minute, 16),
		Audit:      security.NewAuditLogger(false),
	})
	return handler.NewAskHandler(p, security.NewInputValidator(2000))
}

func TestAskHappyPath(t *testing.T) {
	h := newAskHandler([]map[string]interface{}{
		{"CHAIN_ID": "PC_SALES_DAILY", "STATUS_OF_PROCESS": "FAILED"},
	})

	body := `{"session_id":"s1","question":"Show me all failed chains today","evaluation_clock":"2026-03-18T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp models.AskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Intent != "STATUS_LOOKUP" {
		t.Errorf("intent = %s", resp.Intent)
	}
	if resp.SessionID != "s1" {
		t.Errorf("session_id = %s, want s1", resp.SessionID)
	}
	if resp.Metadata.RowCount != 1 {
		t.Errorf("row_count = %d, want 1", resp.Metadata.RowCount)
	}
}

func TestAskGeneratesSessionID(t *testing.T) {
	h := newAskHandler(nil)

	body := `{"question":"help"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	var resp models.AskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Error("missing session_id should be generated server-side")
	}
}

func TestAskBadRequests(t *testing.T) {
	h := newAskHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"question":`},
		{"empty question", `{"question":"   "}`},
		{"injection attempt", `{"question":"x; DROP TABLE RSPCLOGCHAIN"}`},
		{"bad clock", `{"question":"help","evaluation_clock":"next tuesday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Ask(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			var errResp models.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
				t.Fatal(err)
			}
			if errResp.Kind != "INVALID_REQUEST" {
				t.Errorf("kind = %q, want INVALID_REQUEST", errResp.Kind)
			}
		})
	}
}

func TestHealthDegradedWithoutStore(t *testing.T) {
	h := handler.NewHealthHandler(nil, false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Checks["datastore"] != "disabled" {
		t.Errorf("datastore check = %q, want disabled", resp.Checks["datastore"])
	}
}

func TestChainsList(t *testing.T) {
	registry := schema.Default()
	h := handler.NewChainsHandler(registry, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chains", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	var resp models.ChainListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count == 0 || len(resp.Chains) != resp.Count {
		t.Errorf("chains = %v, count = %d", resp.Chains, resp.Count)
	}
}

package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/pipeline"
	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/security"
	"github.com/chainsight/chainsight/internal/session"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

var clock = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	calls int32
	rows  []map[string]interface{}
	err   error
}

func (f *fakeStore) Query(ctx context.Context, sql string, params ...interface{}) ([]map[string]interface{}, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) GenerateSQL(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newPipeline(st *fakeStore, model sqlgen.SQLModel) *pipeline.Pipeline {
	registry := schema.Default()
	return pipeline.New(pipeline.Config{
		Classifier: nlu.NewClassifier(0.35),
		Extractor:  nlu.NewExtractor(registry),
		Sessions:   session.NewManager(20),
		Generator:  sqlgen.NewGenerator(registry, model, 0.4),
		Validator:  security.NewSQLValidator(registry, 1000, 2, 1),
		Executor:   executor.New(st, time.Second, time.Minute, 16),
		Audit:      security.NewAuditLogger(false),
	})
}

func TestProcessStatusQuestion(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{
		{"CHAIN_ID": "PC_SALES_DAILY", "STATUS_OF_PROCESS": "FAILED"},
	}}
	p := newPipeline(st, nil)

	resp := p.Process(context.Background(), "s1", "Show me all failed chains today", clock)

	if resp.Intent != string(nlu.IntentStatusLookup) {
		t.Errorf("Intent = %s, want STATUS_LOOKUP", resp.Intent)
	}
	if resp.Status != "success" {
		t.Errorf("Status = %s (%+v)", resp.Status, resp.Response.Error)
	}
	if resp.Metadata.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1", resp.Metadata.RowCount)
	}
	if resp.Metadata.GenerationSrc != string(sqlgen.SourceTemplate) {
		t.Errorf("GenerationSrc = %s, want TEMPLATE", resp.Metadata.GenerationSrc)
	}
}

func TestProcessHelpBypassesExecution(t *testing.T) {
	st := &fakeStore{}
	p := newPipeline(st, nil)

	resp := p.Process(context.Background(), "s1", "what can you do?", clock)

	if resp.Intent != string(nlu.IntentHelp) {
		t.Errorf("Intent = %s, want HELP", resp.Intent)
	}
	if atomic.LoadInt32(&st.calls) != 0 {
		t.Error("help questions must not touch the data store")
	}
}

func TestProcessUnknownGetsGuidance(t *testing.T) {
	st := &fakeStore{}
	p := newPipeline(st, nil)

	resp := p.Process(context.Background(), "s1", "purple elephant sandwich", clock)

	if resp.Intent != string(nlu.IntentUnknown) {
		t.Errorf("Intent = %s, want UNKNOWN", resp.Intent)
	}
	if resp.Response.SummaryText == "" {
		t.Error("UNKNOWN must produce a guidance response")
	}
	if atomic.LoadInt32(&st.calls) != 0 {
		t.Error("UNKNOWN questions must not touch the data store")
	}
}

func TestProcessUnknownChainAsksForClarification(t *testing.T) {
	st := &fakeStore{}
	p := newPipeline(st, nil)

	resp := p.Process(context.Background(), "s1", "status of PC_TOTALLY_BOGUS_CHAIN", clock)

	if resp.Status != "success" {
		t.Errorf("clarification is not an error, Status = %s", resp.Status)
	}
	if atomic.LoadInt32(&st.calls) != 0 {
		t.Error("unresolved chain must not reach the store")
	}
	if resp.Response.SummaryText == "" {
		t.Error("clarification needs user-facing text")
	}
}

func TestProcessIdenticalQuestionServedFromCache(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{
		{"CHAIN_ID": "PC_SALES_DAILY", "STATUS_OF_PROCESS": "SUCCESS"},
	}}
	p := newPipeline(st, nil)
	ctx := context.Background()

	first := p.Process(ctx, "s1", "status of PC_SALES_DAILY", clock)
	if first.Metadata.ServedFromCache {
		t.Error("first execution should not be cached")
	}

	second := p.Process(ctx, "s1", "status of PC_SALES_DAILY", clock)
	if !second.Metadata.ServedFromCache {
		t.Error("identical question within TTL should be served from cache")
	}
	if got := atomic.LoadInt32(&st.calls); got != 1 {
		t.Errorf("store queried %d times, want 1", got)
	}
}

func TestProcessExecutionErrorIsGeneric(t *testing.T) {
	st := &fakeStore{err: context.DeadlineExceeded}
	p := newPipeline(st, nil)

	resp := p.Process(context.Background(), "s1", "show failed chains", clock)

	if resp.Status != "error" {
		t.Errorf("Status = %s, want error", resp.Status)
	}
	if resp.Response.Error == nil || resp.Response.Error.Kind != "EXECUTION_ERROR" {
		t.Errorf("Error = %+v, want EXECUTION_ERROR", resp.Response.Error)
	}
	// The user never sees the specific failure.
	if resp.Response.Error.Message == context.DeadlineExceeded.Error() {
		t.Error("raw error leaked to the user")
	}
}

func TestProcessTemplatePathPreferredOverModel(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{{"CHAIN_ID": "PC_CRM_EXTRACT"}}}
	model := &fakeModel{err: context.Canceled} // would fail if consulted
	p := newPipeline(st, model)

	resp := p.Process(context.Background(), "s1", "list chains with status running", clock)
	if resp.Status != "success" {
		t.Fatalf("Status = %s (%+v)", resp.Status, resp.Response.Error)
	}
	if resp.Metadata.GenerationSrc != string(sqlgen.SourceTemplate) {
		t.Errorf("GenerationSrc = %s, want TEMPLATE", resp.Metadata.GenerationSrc)
	}
}

func TestProcessFollowUpUsesHistory(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{
		{"CHAIN_ID": "PC_SALES_DAILY", "STATUS_OF_PROCESS": "SUCCESS"},
	}}
	p := newPipeline(st, nil)
	ctx := context.Background()

	p.Process(ctx, "s1", "What is the status of PC_SALES_DAILY today?", clock)
	resp := p.Process(ctx, "s1", "and yesterday?", clock)

	if resp.Intent != string(nlu.IntentStatusLookup) {
		t.Errorf("follow-up Intent = %s, want STATUS_LOOKUP", resp.Intent)
	}
	if resp.Status != "success" {
		t.Errorf("follow-up Status = %s", resp.Status)
	}
	// Different date range means a different fingerprint, so a second store
	// round trip.
	if got := atomic.LoadInt32(&st.calls); got != 2 {
		t.Errorf("store queried %d times, want 2", got)
	}
}

func TestProcessHistoryIsolatedPerSession(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{
		{"CHAIN_ID": "PC_SALES_DAILY", "STATUS_OF_PROCESS": "SUCCESS"},
	}}
	p := newPipeline(st, nil)
	ctx := context.Background()

	p.Process(ctx, "s1", "What is the status of PC_SALES_DAILY?", clock)
	resp := p.Process(ctx, "s2", "and yesterday?", clock)

	if resp.Intent != string(nlu.IntentUnknown) {
		t.Errorf("other session's history leaked: Intent = %s", resp.Intent)
	}
}

func TestProcessStatsCounters(t *testing.T) {
	st := &fakeStore{rows: []map[string]interface{}{{"CHAIN_ID": "PC_SALES_DAILY"}}}
	p := newPipeline(st, nil)
	ctx := context.Background()

	p.Process(ctx, "s1", "status of PC_SALES_DAILY", clock)
	p.Process(ctx, "s1", "status of PC_SALES_DAILY", clock)
	p.Process(ctx, "s1", "help", clock)

	snap := p.Stats().Snapshot()
	if snap.Questions != 3 {
		t.Errorf("Questions = %d, want 3", snap.Questions)
	}
	if snap.TemplateQueries != 2 {
		t.Errorf("TemplateQueries = %d, want 2", snap.TemplateQueries)
	}
	if snap.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", snap.CacheHits)
	}
	if snap.HelpResponses != 1 {
		t.Errorf("HelpResponses = %d, want 1", snap.HelpResponses)
	}
}

package sqlgen_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

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

func testRegistry() *schema.Descriptor {
	return schema.Default()
}

func strPtr(s string) *string { return &s }

func statusPtr(s nlu.Status) *nlu.Status { return &s }

func dateRange(startY int, startM time.Month, startD, endY int, endM time.Month, endD int) *nlu.DateRange {
	return &nlu.DateRange{
		Start: time.Date(startY, startM, startD, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endY, endM, endD, 0, 0, 0, 0, time.UTC),
	}
}

func TestTemplateStatusLookup(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)

	ents := nlu.Entities{
		ChainID:   strPtr("PC_SALES_DAILY"),
		Status:    statusPtr(nlu.StatusFailed),
		DateRange: dateRange(2026, 3, 18, 2026, 3, 18),
	}

	cand, err := g.Template(nlu.IntentStatusLookup, ents)
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if cand.Source != sqlgen.SourceTemplate {
		t.Errorf("Source = %s, want TEMPLATE", cand.Source)
	}
	if cand.Confidence != sqlgen.TemplateConfidence {
		t.Errorf("Confidence = %.2f, want %.2f", cand.Confidence, sqlgen.TemplateConfidence)
	}
	if !strings.Contains(cand.SQL, "VW_LATEST_CHAIN_RUNS") || !strings.Contains(cand.SQL, "rn = 1") {
		t.Errorf("status lookup should read the latest-runs view: %q", cand.SQL)
	}
	want := []interface{}{"PC_SALES_DAILY", "FAILED", "2026-03-18", "2026-03-18"}
	if len(cand.Params) != len(want) {
		t.Fatalf("Params = %v, want %v", cand.Params, want)
	}
	for i := range want {
		if cand.Params[i] != want[i] {
			t.Errorf("Params[%d] = %v, want %v", i, cand.Params[i], want[i])
		}
	}
	// No entity value may appear inline.
	for _, p := range want {
		if strings.Contains(cand.SQL, "'"+p.(string)+"'") {
			t.Errorf("entity %v inlined in SQL: %q", p, cand.SQL)
		}
	}
}

func TestTemplateDeterministic(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)
	ents := nlu.Entities{Status: statusPtr(nlu.StatusFailed)}

	first, err := g.Template(nlu.IntentStatusLookup, ents)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		got, err := g.Template(nlu.IntentStatusLookup, ents)
		if err != nil {
			t.Fatal(err)
		}
		if got.SQL != first.SQL {
			t.Fatalf("template SQL not deterministic: %q vs %q", got.SQL, first.SQL)
		}
	}
}

func TestTemplateFailureAnalysisDefaultsToFailed(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)

	cand, err := g.Template(nlu.IntentFailureAnalysis, nlu.Entities{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cand.SQL, "RSPCLOGCHAIN") {
		t.Errorf("failure analysis should read the run log: %q", cand.SQL)
	}
	if len(cand.Params) != 1 || cand.Params[0] != "FAILED" {
		t.Errorf("Params = %v, want [FAILED]", cand.Params)
	}
}

func TestTemplateTrendWithAndWithoutRange(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)

	withRange, err := g.Template(nlu.IntentTrendAnalysis, nlu.Entities{
		DateRange: dateRange(2026, 3, 12, 2026, 3, 18),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(withRange.SQL, `GROUP BY "CURRENT_DATE"`) {
		t.Errorf("trend with range should build a per-day series: %q", withRange.SQL)
	}

	withoutRange, err := g.Template(nlu.IntentTrendAnalysis, nlu.Entities{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(withoutRange.SQL, "VW_CHAIN_SUMMARY") {
		t.Errorf("trend without range should read the summary view: %q", withoutRange.SQL)
	}
	if len(withoutRange.Params) != 0 {
		t.Errorf("summary query should have no params, got %v", withoutRange.Params)
	}
}

// The run-date column must always be emitted quoted; bare, Postgres reads
// CURRENT_DATE as today's date and the range filter goes inert.
func TestTemplatesQuoteRunDateColumn(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)
	ents := nlu.Entities{DateRange: dateRange(2026, 3, 12, 2026, 3, 18)}

	for _, intent := range []nlu.Intent{nlu.IntentStatusLookup, nlu.IntentFailureAnalysis, nlu.IntentTrendAnalysis} {
		cand, err := g.Template(intent, ents)
		if err != nil {
			t.Fatalf("%s: %v", intent, err)
		}
		if bare := strings.ReplaceAll(cand.SQL, `"CURRENT_DATE"`, ""); strings.Contains(bare, "CURRENT_DATE") {
			t.Errorf("%s template leaves the run-date column unquoted: %q", intent, cand.SQL)
		}
	}
}

func TestTemplateUnknownIntent(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)
	if _, err := g.Template(nlu.IntentHelp, nlu.Entities{}); !errors.Is(err, sqlgen.ErrNoTemplate) {
		t.Errorf("err = %v, want ErrNoTemplate", err)
	}
}

func TestModelPathBindsEntityParams(t *testing.T) {
	m := &fakeModel{reply: "SELECT CHAIN_ID FROM VW_LATEST_CHAIN_RUNS WHERE CHAIN_ID = $1 AND STATUS_OF_PROCESS = $2"}
	g := sqlgen.NewGenerator(testRegistry(), m, 0.4)

	ents := nlu.Entities{
		ChainID: strPtr("PC_SALES_DAILY"),
		Status:  statusPtr(nlu.StatusRunning),
	}
	cand, err := g.Model(context.Background(), "is sales running?", nlu.IntentStatusLookup, ents)
	if err != nil {
		t.Fatal(err)
	}
	if cand.Source != sqlgen.SourceModel {
		t.Errorf("Source = %s, want MODEL", cand.Source)
	}
	if cand.Confidence != 0.4 {
		t.Errorf("Confidence = %.2f, want 0.4", cand.Confidence)
	}
	want := []interface{}{"PC_SALES_DAILY", "RUNNING"}
	if len(cand.Params) != len(want) {
		t.Fatalf("Params = %v, want %v", cand.Params, want)
	}
	for i := range want {
		if cand.Params[i] != want[i] {
			t.Errorf("Params[%d] = %v, want %v", i, cand.Params[i], want[i])
		}
	}
}

func TestModelPathStripsMarkdownFence(t *testing.T) {
	m := &fakeModel{reply: "```sql\nSELECT CHAIN_ID FROM RSPCLOGCHAIN\n```"}
	g := sqlgen.NewGenerator(testRegistry(), m, 0.4)

	cand, err := g.Model(context.Background(), "list chains", nlu.IntentStatusLookup, nlu.Entities{})
	if err != nil {
		t.Fatal(err)
	}
	if cand.SQL != "SELECT CHAIN_ID FROM RSPCLOGCHAIN" {
		t.Errorf("SQL = %q, fence not stripped", cand.SQL)
	}
}

func TestModelPathRejectsMultipleStatements(t *testing.T) {
	m := &fakeModel{reply: "SELECT CHAIN_ID FROM RSPCLOGCHAIN; DROP TABLE RSPCLOGCHAIN"}
	g := sqlgen.NewGenerator(testRegistry(), m, 0.4)

	if _, err := g.Model(context.Background(), "q", nlu.IntentStatusLookup, nlu.Entities{}); err == nil {
		t.Error("multi-statement model output should be a hard error")
	}
}

func TestModelPathErrorsWithoutModel(t *testing.T) {
	g := sqlgen.NewGenerator(testRegistry(), nil, 0.4)
	if _, err := g.Model(context.Background(), "q", nlu.IntentStatusLookup, nlu.Entities{}); err == nil {
		t.Error("nil model should error, not panic")
	}
}

func TestModelPathPropagatesError(t *testing.T) {
	m := &fakeModel{err: errors.New("provider timeout")}
	g := sqlgen.NewGenerator(testRegistry(), m, 0.4)
	if _, err := g.Model(context.Background(), "q", nlu.IntentStatusLookup, nlu.Entities{}); err == nil {
		t.Error("model error should propagate")
	}
}

package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chainsight/chainsight/internal/nlu"
)

// ErrNoTemplate signals that no deterministic template covers the intent.
var ErrNoTemplate = errors.New("no template for intent")

// TemplateConfidence is fixed high: template correctness is structural.
const TemplateConfidence = 0.9

// buildTemplate produces the deterministic statement for an intent. Filters
// are appended in a fixed slot order (chain, status, date range) so the same
// entities always yield the same SQL and parameter sequence.
func buildTemplate(intent nlu.Intent, ents nlu.Entities) (string, []interface{}, error) {
	switch intent {
	case nlu.IntentStatusLookup:
		return statusLookupSQL(ents), statusLookupParams(ents), nil
	case nlu.IntentFailureAnalysis:
		return failureAnalysisSQL(ents)
	case nlu.IntentTrendAnalysis:
		return trendAnalysisSQL(ents)
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrNoTemplate, intent)
	}
}

// The run-date column is spelled CURRENT_DATE upstream, which Postgres
// parses as the date function unless quoted. Statements always quote it so
// the filter binds the column, not today's clock.
func statusLookupSQL(ents nlu.Entities) string {
	var b strings.Builder
	b.WriteString(`SELECT CHAIN_ID, STATUS_OF_PROCESS, "CURRENT_DATE", TIME, LOG_ID FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1`)
	n := 0
	if ents.ChainID != nil {
		n++
		fmt.Fprintf(&b, " AND CHAIN_ID = $%d", n)
	}
	if ents.Status != nil {
		n++
		fmt.Fprintf(&b, " AND STATUS_OF_PROCESS = $%d", n)
	}
	if ents.DateRange != nil {
		fmt.Fprintf(&b, ` AND "CURRENT_DATE" BETWEEN $%d AND $%d`, n+1, n+2)
	}
	b.WriteString(` ORDER BY "CURRENT_DATE" DESC, TIME DESC`)
	return b.String()
}

func statusLookupParams(ents nlu.Entities) []interface{} {
	var params []interface{}
	if ents.ChainID != nil {
		params = append(params, *ents.ChainID)
	}
	if ents.Status != nil {
		params = append(params, string(*ents.Status))
	}
	params = appendDateParams(params, ents)
	return params
}

// failureAnalysisSQL walks the run log rather than the latest-status view so
// every failed execution in the window is visible, not just current state.
func failureAnalysisSQL(ents nlu.Entities) (string, []interface{}, error) {
	status := nlu.StatusFailed
	if ents.Status != nil {
		status = *ents.Status
	}

	var b strings.Builder
	params := []interface{}{string(status)}
	b.WriteString(`SELECT CHAIN_ID, STATUS_OF_PROCESS, "CURRENT_DATE", TIME, LOG_ID FROM RSPCLOGCHAIN WHERE STATUS_OF_PROCESS = $1`)
	n := 1
	if ents.ChainID != nil {
		n++
		fmt.Fprintf(&b, " AND CHAIN_ID = $%d", n)
		params = append(params, *ents.ChainID)
	}
	if ents.DateRange != nil {
		fmt.Fprintf(&b, ` AND "CURRENT_DATE" BETWEEN $%d AND $%d`, n+1, n+2)
		params = appendDateParams(params, ents)
	}
	b.WriteString(` ORDER BY "CURRENT_DATE" DESC, TIME DESC`)
	return b.String(), params, nil
}

// trendAnalysisSQL returns a per-day time series over the requested range
// when one is present, else the per-chain summary ordered worst-first.
func trendAnalysisSQL(ents nlu.Entities) (string, []interface{}, error) {
	if ents.DateRange != nil {
		status := nlu.StatusFailed
		if ents.Status != nil {
			status = *ents.Status
		}
		var b strings.Builder
		params := []interface{}{string(status)}
		b.WriteString(`SELECT "CURRENT_DATE", COUNT(*) AS total_runs, SUM(CASE WHEN STATUS_OF_PROCESS = $1 THEN 1 ELSE 0 END) AS matching_runs FROM RSPCLOGCHAIN WHERE`)
		n := 1
		if ents.ChainID != nil {
			n++
			fmt.Fprintf(&b, " CHAIN_ID = $%d AND", n)
			params = append(params, *ents.ChainID)
		}
		fmt.Fprintf(&b, ` "CURRENT_DATE" BETWEEN $%d AND $%d`, n+1, n+2)
		params = appendDateParams(params, ents)
		b.WriteString(` GROUP BY "CURRENT_DATE" ORDER BY "CURRENT_DATE"`)
		return b.String(), params, nil
	}

	var b strings.Builder
	var params []interface{}
	b.WriteString("SELECT CHAIN_ID, total_runs, successful_runs, failed_runs, success_rate_percent, last_run_time FROM VW_CHAIN_SUMMARY")
	if ents.ChainID != nil {
		b.WriteString(" WHERE CHAIN_ID = $1")
		params = append(params, *ents.ChainID)
	}
	b.WriteString(" ORDER BY success_rate_percent ASC")
	return b.String(), params, nil
}

// ChainHistory is the predefined execution-history statement used by the
// chain-history endpoint.
func ChainHistory(chainID string) (string, []interface{}) {
	return `SELECT LOG_ID, STATUS_OF_PROCESS, "CURRENT_DATE", TIME, CREATED_TIMESTAMP FROM RSPCLOGCHAIN WHERE CHAIN_ID = $1 ORDER BY CREATED_TIMESTAMP DESC`,
		[]interface{}{chainID}
}

func appendDateParams(params []interface{}, ents nlu.Entities) []interface{} {
	if ents.DateRange == nil {
		return params
	}
	return append(params,
		ents.DateRange.Start.Format("2006-01-02"),
		ents.DateRange.End.Format("2006-01-02"))
}

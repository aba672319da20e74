package formatter

import (
	"fmt"
	"strings"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/nlu"
)

// statusMarkers prefix summary lines so a text-only consumer can scan
// outcomes at a glance.
var statusMarkers = map[nlu.Status]string{
	nlu.StatusSuccess:   "[OK]",
	nlu.StatusFailed:    "[FAILED]",
	nlu.StatusRunning:   "[RUNNING]",
	nlu.StatusWaiting:   "[WAITING]",
	nlu.StatusCancelled: "[CANCELLED]",
}

// Format builds the user-facing response for a successful execution. It is a
// pure function of its inputs.
func Format(intent nlu.Intent, res *executor.Result, ents nlu.Entities) models.Response {
	summary := summarize(intent, res, ents)
	return models.Response{
		SummaryText: summary,
		Rows:        res.Rows,
		ChartHint:   chartHint(intent, res),
	}
}

func summarize(intent nlu.Intent, res *executor.Result, ents nlu.Entities) string {
	var b strings.Builder

	subject := describeSubject(ents)
	n := len(res.Rows)

	switch intent {
	case nlu.IntentStatusLookup:
		if n == 0 {
			fmt.Fprintf(&b, "No chain runs found%s.", subject)
		} else {
			fmt.Fprintf(&b, "Found %d chain run%s%s.", n, plural(n), subject)
			if marker := dominantStatus(res.Rows); marker != "" {
				b.WriteString(" " + marker)
			}
		}
	case nlu.IntentFailureAnalysis:
		if n == 0 {
			fmt.Fprintf(&b, "No failures found%s. Everything looks healthy.", subject)
		} else {
			fmt.Fprintf(&b, "[FAILED] Found %d failure record%s%s. Review the log entries below for the failing steps.", n, plural(n), subject)
		}
	case nlu.IntentTrendAnalysis:
		if n == 0 {
			fmt.Fprintf(&b, "No run history available%s to build a trend.", subject)
		} else {
			fmt.Fprintf(&b, "Trend over %d data point%s%s.", n, plural(n), subject)
		}
	default:
		if n == 0 {
			b.WriteString("No matching records found.")
		} else {
			fmt.Fprintf(&b, "Found %d record%s.", n, plural(n))
		}
	}

	if res.Truncated {
		fmt.Fprintf(&b, " Showing the first %d rows; narrow the question to see the rest.", len(res.Rows))
	}
	return b.String()
}

// describeSubject renders the entity filters as a readable clause, e.g.
// " for PC_SALES_DAILY between 2026-01-01 and 2026-01-07".
func describeSubject(ents nlu.Entities) string {
	var parts []string
	if ents.ChainID != nil {
		parts = append(parts, "for "+*ents.ChainID)
	}
	if ents.Status != nil {
		parts = append(parts, "with status "+string(*ents.Status))
	}
	if ents.DateRange != nil {
		start := ents.DateRange.Start.Format("2006-01-02")
		end := ents.DateRange.End.Format("2006-01-02")
		if ents.DateRange.SingleDay() {
			parts = append(parts, "on "+start)
		} else {
			parts = append(parts, fmt.Sprintf("between %s and %s", start, end))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// rowValue looks a column up regardless of key case: the store reports
// unquoted identifiers lowercased while quoted ones keep their spelling.
func rowValue(row map[string]interface{}, column string) (interface{}, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

// dominantStatus summarizes the status column when every row agrees on it.
func dominantStatus(rows []map[string]interface{}) string {
	seen := ""
	for _, row := range rows {
		v, ok := rowValue(row, "STATUS_OF_PROCESS")
		if !ok {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return ""
		}
		if seen == "" {
			seen = s
		} else if seen != s {
			return ""
		}
	}
	if marker, ok := statusMarkers[nlu.Status(seen)]; ok {
		return fmt.Sprintf("All %s %s.", seen, marker)
	}
	return ""
}

func chartHint(intent nlu.Intent, res *executor.Result) models.ChartHint {
	if len(res.Rows) == 0 {
		return models.ChartNone
	}
	switch intent {
	case nlu.IntentTrendAnalysis:
		return models.ChartTimeSeries
	case nlu.IntentStatusLookup, nlu.IntentFailureAnalysis:
		if _, ok := rowValue(res.Rows[0], "STATUS_OF_PROCESS"); ok {
			return models.ChartStatusDistribution
		}
		return models.ChartNone
	default:
		return models.ChartNone
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// FormatHelp answers HELP and UNKNOWN intents without touching the store.
func FormatHelp() models.Response {
	return models.Response{
		SummaryText: "I answer questions about process chain execution. Try:\n" +
			"- \"What is the status of PC_SALES_DAILY?\"\n" +
			"- \"Show me all failed chains today\"\n" +
			"- \"Why did PC_FINANCE_DAILY fail yesterday?\"\n" +
			"- \"Success rate trend for the last 7 days\"",
		ChartHint: models.ChartNone,
	}
}

// FormatClarification asks the user to fill a slot the extractor could not
// resolve.
func FormatClarification(message string) models.Response {
	return models.Response{
		SummaryText: message,
		ChartHint:   models.ChartNone,
	}
}

// FormatRejection explains a blocked query without leaking validator detail.
func FormatRejection() models.Response {
	return models.Response{
		SummaryText: "I couldn't build a safe query for that question. Try rephrasing it, for example \"show failed chains today\".",
		ChartHint:   models.ChartNone,
		Error:       &models.ErrorInfo{Kind: "VALIDATION_REJECTED", Message: "query rejected by safety checks"},
	}
}

// FormatExecutionError downgrades the specific failure to a generic message;
// the caller logs the detail.
func FormatExecutionError() models.Response {
	return models.Response{
		SummaryText: "The query could not be completed right now. Please try again shortly.",
		ChartHint:   models.ChartNone,
		Error:       &models.ErrorInfo{Kind: "EXECUTION_ERROR", Message: "query execution failed"},
	}
}

// FormatGenerationFailure covers the case where neither generation path
// produced an accepted candidate.
func FormatGenerationFailure() models.Response {
	return models.Response{
		SummaryText: "I understood the question but couldn't turn it into a query. Try being more specific about the chain or date.",
		ChartHint:   models.ChartNone,
		Error:       &models.ErrorInfo{Kind: "GENERATION_FAILED", Message: "no query candidate produced"},
	}
}

package sqlgen

import (
	"fmt"
	"strings"

	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/schema"
)

const systemPrompt = `You translate questions about process-chain execution state into a single SQL SELECT statement.

RULES:
1. Generate exactly one SELECT statement - never INSERT, UPDATE, DELETE, DROP, or any DDL.
2. Reference only the tables and columns listed in the schema below.
3. User-supplied values are provided as numbered parameters. Reference them as $1, $2, ... in order. Never write their values inline.
4. Do not add a LIMIT clause; the caller enforces row limits.
5. The run-date column CURRENT_DATE collides with the SQL keyword of the same name; always write it double-quoted as "CURRENT_DATE".
6. Return ONLY SQL. No markdown, no explanation.`

// fewShotExamples pair questions with parameterized statements so the model
// imitates the placeholder discipline.
var fewShotExamples = []struct {
	question string
	params   string
	sql      string
}{
	{
		question: "Show all failed process chains",
		params:   "$1 = FAILED",
		sql:      `SELECT CHAIN_ID, STATUS_OF_PROCESS, "CURRENT_DATE", TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = $1 AND rn = 1`,
	},
	{
		question: "What are the success rates for all chains?",
		params:   "(none)",
		sql:      "SELECT CHAIN_ID, success_rate_percent, total_runs, failed_runs FROM VW_CHAIN_SUMMARY ORDER BY success_rate_percent ASC",
	},
	{
		question: "Which chains are currently running?",
		params:   "$1 = RUNNING",
		sql:      `SELECT CHAIN_ID, "CURRENT_DATE", TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = $1 AND rn = 1`,
	},
	{
		question: "List all process chain names",
		params:   "(none)",
		sql:      "SELECT DISTINCT CHAIN_ID FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1 ORDER BY CHAIN_ID",
	},
}

// buildModelPrompt renders the question, the schema catalogue, the bound
// parameter list, and the few-shot examples into one user prompt.
func buildModelPrompt(question string, registry *schema.Descriptor, params []boundParam) string {
	var b strings.Builder

	b.WriteString("# Schema\n\n")
	for _, t := range registry.Tables() {
		fmt.Fprintf(&b, "## %s\n", t.Name)
		for _, c := range t.Columns {
			nullable := ""
			if c.Nullable {
				nullable = ", nullable"
			}
			fmt.Fprintf(&b, "- %s (%s%s)\n", c.Name, c.Type, nullable)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Examples\n\n")
	for _, ex := range fewShotExamples {
		fmt.Fprintf(&b, "Question: %s\nParameters: %s\nSQL: %s\n\n", ex.question, ex.params, ex.sql)
	}

	b.WriteString("# Bound parameters for this question\n\n")
	if len(params) == 0 {
		b.WriteString("(none)\n")
	}
	for i, p := range params {
		fmt.Fprintf(&b, "$%d = %s (%s)\n", i+1, p.value, p.slot)
	}

	fmt.Fprintf(&b, "\n# Question\n\n%s\n", strings.TrimSpace(question))
	return b.String()
}

// boundParam is one entity value offered to the model path as a placeholder.
type boundParam struct {
	slot  string
	value string
}

// entityParams lists entity values in the fixed slot order the model prompt
// and the template path share: chain, status, range start, range end.
func entityParams(ents nlu.Entities) []boundParam {
	var out []boundParam
	if ents.ChainID != nil {
		out = append(out, boundParam{slot: "chain_id", value: *ents.ChainID})
	}
	if ents.Status != nil {
		out = append(out, boundParam{slot: "status", value: string(*ents.Status)})
	}
	if ents.DateRange != nil {
		out = append(out,
			boundParam{slot: "date_start", value: ents.DateRange.Start.Format("2006-01-02")},
			boundParam{slot: "date_end", value: ents.DateRange.End.Format("2006-01-02")})
	}
	return out
}

package models

// ChartHint tells the presentation layer which visualization fits the
// result shape. It is a label, never rendered here.
type ChartHint string

const (
	ChartStatusDistribution ChartHint = "STATUS_DISTRIBUTION"
	ChartTimeSeries         ChartHint = "TIME_SERIES"
	ChartNone               ChartHint = "NONE"
)

// ErrorInfo is the user-safe error payload; the specific reason stays in the
// logs.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response is the structured answer to one question.
type Response struct {
	SummaryText string                   `json:"summary_text"`
	Rows        []map[string]interface{} `json:"rows"`
	ChartHint   ChartHint                `json:"chart_hint"`
	Error       *ErrorInfo               `json:"error,omitempty"`
}

// QueryMetadata carries execution diagnostics for one answered question.
type QueryMetadata struct {
	RowCount        int    `json:"row_count"`
	Truncated       bool   `json:"truncated"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	ServedFromCache bool   `json:"served_from_cache"`
	GenerationSrc   string `json:"generation_source,omitempty"`
}

// AskResponse is returned by POST /api/v1/ask
type AskResponse struct {
	Status     string        `json:"status"`
	SessionID  string        `json:"session_id"`
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Response   Response      `json:"response"`
	Metadata   QueryMetadata `json:"metadata"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ChainListResponse is returned by GET /api/v1/chains
type ChainListResponse struct {
	Status string   `json:"status"`
	Chains []string `json:"chains"`
	Count  int      `json:"count"`
}

// ChainHistoryResponse is returned by GET /api/v1/chains/{chain_id}/history
type ChainHistoryResponse struct {
	Status   string                   `json:"status"`
	ChainID  string                   `json:"chain_id"`
	Rows     []map[string]interface{} `json:"rows"`
	Metadata QueryMetadata            `json:"metadata"`
}

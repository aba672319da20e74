package nlu

import "time"

// Intent is the coarse category of a question. It drives which SQL template
// applies downstream.
type Intent string

const (
	IntentStatusLookup    Intent = "STATUS_LOOKUP"
	IntentFailureAnalysis Intent = "FAILURE_ANALYSIS"
	IntentTrendAnalysis   Intent = "TREND_ANALYSIS"
	IntentHelp            Intent = "HELP"
	IntentUnknown         Intent = "UNKNOWN"
)

// intentPriority breaks classification ties; lower wins.
var intentPriority = map[Intent]int{
	IntentStatusLookup:    0,
	IntentFailureAnalysis: 1,
	IntentTrendAnalysis:   2,
	IntentHelp:            3,
	IntentUnknown:         4,
}

// Status is a process-chain run status.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusRunning   Status = "RUNNING"
	StatusWaiting   Status = "WAITING"
	StatusCancelled Status = "CANCELLED"
)

// DateRange is a closed date interval. Start and End are date-truncated in
// the evaluation clock's location.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay reports whether the range covers exactly one day.
func (r DateRange) SingleDay() bool {
	return r.Start.Equal(r.End)
}

// Entities holds the slots extracted from a question. Nil means the slot is
// absent; there are no sentinel values.
type Entities struct {
	ChainID   *string
	DateRange *DateRange
	Status    *Status
	Limit     *int

	// UnknownChainID records a chain-shaped token that did not resolve
	// against the registry. It is a diagnostic, not a slot: downstream
	// stages must not query with it.
	UnknownChainID string
}

// Prior is the slice of a past conversation turn the classifier and
// extractor need for follow-up resolution.
type Prior struct {
	Text     string
	Intent   Intent
	Entities Entities
}

package pipeline

import "sync/atomic"

// Stats counts pipeline outcomes for the stats endpoint. All fields are
// updated atomically.
type Stats struct {
	Questions         atomic.Int64
	TemplateQueries   atomic.Int64
	ModelQueries      atomic.Int64
	ValidationRejects atomic.Int64
	ExecutionErrors   atomic.Int64
	CacheHits         atomic.Int64
	Clarifications    atomic.Int64
	HelpResponses     atomic.Int64
}

// Snapshot is the JSON shape served by the stats endpoint.
type Snapshot struct {
	Questions         int64 `json:"questions"`
	TemplateQueries   int64 `json:"template_queries"`
	ModelQueries      int64 `json:"model_queries"`
	ValidationRejects int64 `json:"validation_rejects"`
	ExecutionErrors   int64 `json:"execution_errors"`
	CacheHits         int64 `json:"cache_hits"`
	Clarifications    int64 `json:"clarifications"`
	HelpResponses     int64 `json:"help_responses"`
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Questions:         s.Questions.Load(),
		TemplateQueries:   s.TemplateQueries.Load(),
		ModelQueries:      s.ModelQueries.Load(),
		ValidationRejects: s.ValidationRejects.Load(),
		ExecutionErrors:   s.ExecutionErrors.Load(),
		CacheHits:         s.CacheHits.Load(),
		Clarifications:    s.Clarifications.Load(),
		HelpResponses:     s.HelpResponses.Load(),
	}
}

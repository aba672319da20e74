package models

import "time"

// AskRequest for POST /api/v1/ask
type AskRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	// EvaluationClock pins relative date expressions ("today", "this week")
	// to a fixed instant. RFC 3339; empty means the server's current time.
	EvaluationClock string `json:"evaluation_clock,omitempty"`
}

// Clock resolves the evaluation clock, falling back to now.
func (r *AskRequest) Clock(now time.Time) (time.Time, error) {
	if r.EvaluationClock == "" {
		return now, nil
	}
	return time.Parse(time.RFC3339, r.EvaluationClock)
}

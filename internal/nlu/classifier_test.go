package nlu_test

import (
	"testing"

	"github.com/chainsight/chainsight/internal/nlu"
)

func TestClassifyIntents(t *testing.T) {
	c := nlu.NewClassifier(0.35)

	tests := []struct {
		name string
		text string
		want nlu.Intent
	}{
		{"status by chain", "What is the status of PC_SALES_DAILY?", nlu.IntentStatusLookup},
		{"failed today is a lookup", "Show me all failed chains today", nlu.IntentStatusLookup},
		{"running chains", "Which chains are currently running?", nlu.IntentStatusLookup},
		{"why question", "Why did PC_FINANCE_DAILY fail yesterday?", nlu.IntentFailureAnalysis},
		{"root cause", "Find the root cause of the PC_HR_WEEKLY problem", nlu.IntentFailureAnalysis},
		{"success rate", "Success rate trend for the last 7 days", nlu.IntentTrendAnalysis},
		{"summary", "Give me a reliability summary over time", nlu.IntentTrendAnalysis},
		{"help", "What can you do?", nlu.IntentHelp},
		{"gibberish", "purple elephant sandwich", nlu.IntentUnknown},
		{"empty", "", nlu.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text, nil)
			if got.Intent != tt.want {
				t.Errorf("Classify(%q) = %s (conf %.2f), want %s", tt.text, got.Intent, got.Confidence, tt.want)
			}
		})
	}
}

func TestClassifyUnknownHasZeroConfidence(t *testing.T) {
	c := nlu.NewClassifier(0.35)
	got := c.Classify("purple elephant sandwich", nil)
	if got.Intent != nlu.IntentUnknown || got.Confidence != 0 {
		t.Errorf("got (%s, %.2f), want (UNKNOWN, 0)", got.Intent, got.Confidence)
	}
}

func TestClassifyFollowUpInheritsIntent(t *testing.T) {
	c := nlu.NewClassifier(0.35)
	prior := []nlu.Prior{
		{Text: "What is the status of PC_SALES_DAILY?", Intent: nlu.IntentStatusLookup},
	}

	got := c.Classify("and yesterday?", prior)
	if got.Intent != nlu.IntentStatusLookup {
		t.Errorf("follow-up intent = %s, want STATUS_LOOKUP", got.Intent)
	}
	if got.Confidence >= 0.9 {
		t.Errorf("inherited confidence should be reduced, got %.2f", got.Confidence)
	}
}

func TestClassifyFollowUpWithoutHistory(t *testing.T) {
	c := nlu.NewClassifier(0.35)
	got := c.Classify("and yesterday?", nil)
	if got.Intent != nlu.IntentUnknown {
		t.Errorf("follow-up with no history = %s, want UNKNOWN", got.Intent)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := nlu.NewClassifier(0.35)
	text := "Show me all failed chains today"
	first := c.Classify(text, nil)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text, nil); got != first {
			t.Fatalf("classification not deterministic: %v vs %v", got, first)
		}
	}
}

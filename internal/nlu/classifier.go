package nlu

import (
	"regexp"
	"strings"
)

// Per-intent lexicons. Each hit contributes its weight to the intent score;
// scores are normalized against the total before thresholding.

// A bare status word ("failed", "running") is a filter on a status lookup;
// only investigation vocabulary marks failure analysis.
var statusKeywords = map[string]int{
	"status": 3, "state": 2, "running": 2, "waiting": 2, "latest": 2,
	"current": 2, "show": 2, "list": 2, "which chains": 2, "active": 1,
	"finished": 1, "completed": 1, "succeeded": 1, "last run": 2,
	"failed": 1, "cancelled": 1, "canceled": 1,
}

var failureKeywords = map[string]int{
	"why": 3, "investigate": 3, "root cause": 3, "diagnos": 3,
	"went wrong": 3, "what happened": 3, "analyz": 2, "failure": 2,
	"keeps failing": 3, "failing": 2, "broken": 2, "stuck": 2,
	"problem": 2,
}

var trendKeywords = map[string]int{
	"trend": 3, "success rate": 3, "performance": 3, "history": 2,
	"over time": 3, "summary": 2, "statistics": 2, "stats": 2,
	"average": 2, "how often": 2, "how many times": 2, "compare": 2,
	"worst": 2, "best": 2, "most": 1, "reliability": 2,
}

var helpKeywords = map[string]int{
	"help": 3, "what can you do": 3, "how do i": 2, "usage": 2,
	"examples": 2, "hello": 1, "capabilities": 3,
	"what questions": 3,
}

var (
	chainTokenRe = regexp.MustCompile(`(?i)\b(?:PC|ZPC|BW)_[A-Z0-9_]{2,}\b`)
	timeExprRe   = regexp.MustCompile(`(?i)\b(today|yesterday|this week|last week|last month|this month|last \d+ days?|since \d{4}-\d{2}-\d{2}|\d{4}-\d{2}-\d{2})\b`)
	followUpRe   = regexp.MustCompile(`(?i)^\s*(and|also|what about|how about|same)\b|\bit\b|\bagain\b`)
)

// Classification carries the chosen intent with its normalized confidence.
type Classification struct {
	Intent     Intent
	Confidence float64
}

// Classifier scores question text against fixed per-intent lexicons plus
// structural cues. It is a pure function of text and recent turns.
type Classifier struct {
	minConfidence float64
}

func NewClassifier(minConfidence float64) *Classifier {
	return &Classifier{minConfidence: minConfidence}
}

func (c *Classifier) Classify(text string, prior []Prior) Classification {
	lower := strings.ToLower(text)

	scores := map[Intent]int{
		IntentStatusLookup:    scoreLexicon(lower, statusKeywords),
		IntentFailureAnalysis: scoreLexicon(lower, failureKeywords),
		IntentTrendAnalysis:   scoreLexicon(lower, trendKeywords),
		IntentHelp:            scoreLexicon(lower, helpKeywords),
	}

	// A fragment with no lexicon hits and a follow-up cue ("and yesterday?")
	// inherits the prior intent before structural cues can misread it.
	lexTotal := 0
	for _, s := range scores {
		lexTotal += s
	}
	if lexTotal == 0 && followUpRe.MatchString(text) {
		return c.inherit(text, prior)
	}

	// Structural cues: a time expression points at trends, a chain-shaped
	// token at a status question.
	if timeExprRe.MatchString(text) {
		scores[IntentTrendAnalysis] += 2
	}
	if chainTokenRe.MatchString(text) {
		scores[IntentStatusLookup] += 2
	}

	total := 0
	for _, s := range scores {
		total += s
	}

	best := IntentUnknown
	bestScore := 0
	for _, intent := range []Intent{IntentStatusLookup, IntentFailureAnalysis, IntentTrendAnalysis, IntentHelp} {
		s := scores[intent]
		if s > bestScore || (s == bestScore && s > 0 && intentPriority[intent] < intentPriority[best]) {
			best = intent
			bestScore = s
		}
	}

	if total == 0 || best == IntentUnknown {
		return c.inherit(text, prior)
	}

	confidence := float64(bestScore) / float64(total)
	if confidence < c.minConfidence {
		return c.inherit(text, prior)
	}
	return Classification{Intent: best, Confidence: confidence}
}

// inherit handles follow-up fragments ("and yesterday?") by carrying forward
// the most recent actionable intent. Without a follow-up cue or usable
// history the result is UNKNOWN with confidence 0.
func (c *Classifier) inherit(text string, prior []Prior) Classification {
	if !followUpRe.MatchString(text) && !timeExprRe.MatchString(text) {
		return Classification{Intent: IntentUnknown, Confidence: 0}
	}
	for i := len(prior) - 1; i >= 0; i-- {
		switch prior[i].Intent {
		case IntentStatusLookup, IntentFailureAnalysis, IntentTrendAnalysis:
			return Classification{Intent: prior[i].Intent, Confidence: 0.5}
		}
	}
	return Classification{Intent: IntentUnknown, Confidence: 0}
}

func scoreLexicon(lower string, lexicon map[string]int) int {
	score := 0
	for kw, weight := range lexicon {
		if strings.Contains(lower, kw) {
			score += weight
		}
	}
	return score
}

package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chainsight/chainsight/internal/schema"
)

// statusVocabulary maps question words to the status enum. Unrecognized
// status words are dropped, never guessed.
var statusVocabulary = map[string]Status{
	"success":     StatusSuccess,
	"successful":  StatusSuccess,
	"succeeded":   StatusSuccess,
	"green":       StatusSuccess,
	"ok":          StatusSuccess,
	"failed":      StatusFailed,
	"failing":     StatusFailed,
	"failure":     StatusFailed,
	"failures":    StatusFailed,
	"error":       StatusFailed,
	"errors":      StatusFailed,
	"red":         StatusFailed,
	"running":     StatusRunning,
	"active":      StatusRunning,
	"in progress": StatusRunning,
	"waiting":     StatusWaiting,
	"pending":     StatusWaiting,
	"queued":      StatusWaiting,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
	"aborted":     StatusCancelled,
}

// Longer phrases first so "in progress" wins over "progress".
var statusVocabOrder = []string{
	"in progress", "successful", "succeeded", "cancelled", "canceled",
	"failures", "failure", "failing", "aborted", "running", "waiting",
	"pending", "success", "errors", "queued", "failed", "active",
	"error", "green", "red", "ok",
}

// "last N" is deliberately absent: it collides with "last N days".
var limitRe = regexp.MustCompile(`(?i)\b(?:top|first|limit)\s+(\d{1,5})\b`)

// Extractor pulls structured slots out of question text, schema-aware.
type Extractor struct {
	registry *schema.Descriptor
}

func NewExtractor(registry *schema.Descriptor) *Extractor {
	return &Extractor{registry: registry}
}

// Extract never fails on malformed input: a slot that cannot be resolved is
// simply absent.
func (e *Extractor) Extract(text string, intent Intent, clock time.Time, prior []Prior) Entities {
	var ents Entities

	e.extractChain(text, &ents)
	ents.DateRange = resolveDateRange(text, clock)
	ents.Status = extractStatus(text)
	ents.Limit = extractLimit(text)

	e.resolveFromHistory(text, intent, &ents, prior)
	return ents
}

func (e *Extractor) extractChain(text string, ents *Entities) {
	match := chainTokenRe.FindString(text)
	if match == "" {
		return
	}
	candidate := strings.ToUpper(match)
	if resolved, ok := e.registry.ResolveChain(candidate); ok {
		ents.ChainID = &resolved
		return
	}
	// A chain-shaped token the registry does not know. Surface it for a
	// clarification response rather than inventing an identifier.
	ents.UnknownChainID = candidate
}

func extractStatus(text string) *Status {
	lower := strings.ToLower(text)
	for _, word := range statusVocabOrder {
		if containsWord(lower, word) {
			s := statusVocabulary[word]
			return &s
		}
	}
	return nil
}

func extractLimit(text string) *int {
	m := limitRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return nil
	}
	return &n
}

// resolveFromHistory fills slots a follow-up question omitted by walking the
// recent turns in reverse for the most recent turn exposing that slot.
func (e *Extractor) resolveFromHistory(text string, intent Intent, ents *Entities, prior []Prior) {
	if len(prior) == 0 || !followUpRe.MatchString(text) {
		return
	}
	for i := len(prior) - 1; i >= 0; i-- {
		p := prior[i].Entities
		if ents.ChainID == nil && ents.UnknownChainID == "" && p.ChainID != nil {
			id := *p.ChainID
			ents.ChainID = &id
		}
		if ents.Status == nil && p.Status != nil && intent != IntentTrendAnalysis {
			s := *p.Status
			ents.Status = &s
		}
		if ents.ChainID != nil && ents.Status != nil {
			break
		}
	}
	// Date ranges are never inherited: a stale range from a prior turn would
	// silently answer the wrong question.
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(haystack[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(haystack) || !isWordChar(haystack[afterIdx])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

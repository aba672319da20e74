package security

import (
	"fmt"
	"regexp"
	"strings"
)

// questionInjectionPatterns flags question text trying to smuggle SQL or
// prompt-injection instructions past classification.
var questionInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(drop|delete|insert|update|alter|create|truncate)\b`),
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`'.*--`),
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
}

// InputResult contains the validation outcome for raw question text.
type InputResult struct {
	Valid   bool
	Message string
}

// InputValidator gates raw question text before it reaches classification.
type InputValidator struct {
	maxLength int
}

func NewInputValidator(maxLength int) *InputValidator {
	return &InputValidator{maxLength: maxLength}
}

func (v *InputValidator) Validate(question string) InputResult {
	if strings.TrimSpace(question) == "" {
		return InputResult{Valid: false, Message: "question cannot be empty"}
	}
	if len(question) > v.maxLength {
		return InputResult{
			Valid:   false,
			Message: fmt.Sprintf("question too long: %d chars (max %d)", len(question), v.maxLength),
		}
	}
	for _, r := range question {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			return InputResult{Valid: false, Message: "question contains control characters"}
		}
	}
	for _, pattern := range questionInjectionPatterns {
		if pattern.MatchString(question) {
			return InputResult{
				Valid:   false,
				Message: "suspicious pattern detected: " + pattern.String(),
			}
		}
	}
	return InputResult{Valid: true, Message: "ok"}
}

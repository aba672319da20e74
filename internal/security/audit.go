package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger records each processed question with hashed identifiers so the
// audit trail never contains raw question text or full SQL.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogQuestion records the outcome of one pipeline pass.
func (a *AuditLogger) LogQuestion(
	sessionID, question, sanitizedSQL string,
	intent string,
	generationSource string,
	executionTimeMs int64,
	rowCount int,
	success bool,
	failureReason string,
) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "question_audit").
		Str("session_hash", hashStr(sessionID)[:16]).
		Str("question_hash", hashStr(question)[:16]).
		Str("intent", intent).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)

	if sanitizedSQL != "" {
		evt = evt.Str("sql_hash", hashStr(sanitizedSQL)[:16])
	}
	if generationSource != "" {
		evt = evt.Str("generation_source", generationSource)
	}
	if failureReason != "" {
		evt = evt.Str("failure_reason", failureReason)
	}
	evt.Msg("audit")
}

// LogRejection records a validator rejection; these always get logged for
// operability even when audit logging of ordinary traffic is off.
func (a *AuditLogger) LogRejection(sessionID, sql string, reason RejectReason, detail string) {
	log.Warn().
		Str("event", "validation_reject").
		Str("session_hash", hashStr(sessionID)[:16]).
		Str("sql_hash", hashStr(sql)[:16]).
		Str("reason", string(reason)).
		Str("detail", detail).
		Msg("query rejected")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

package models

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope for HTTP-level failures. Kind carries the
// pipeline error taxonomy value when one applies, e.g. INVALID_REQUEST,
// UNKNOWN_CHAIN, VALIDATION_REJECTED, EXECUTION_ERROR.
type ErrorResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteErrorKind(w, code, "", message)
}

// WriteErrorKind writes an error envelope tagged with a taxonomy kind.
func WriteErrorKind(w http.ResponseWriter, code int, kind, message string) {
	WriteJSON(w, code, ErrorResponse{
		Status:  "error",
		Kind:    kind,
		Message: message,
		Code:    code,
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

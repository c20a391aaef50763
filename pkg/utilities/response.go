package utilities

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform success body returned by every endpoint.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope is the uniform failure body. Errors carries optional
// field-level detail and is always present, even when empty.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

// RespondData writes a success envelope with the given status and payload.
func RespondData(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// RespondError writes a failure envelope with the given status and message.
func RespondError(w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		StatusCode: status,
		Message:    message,
		Errors:     errs,
		Success:    false,
	})
}

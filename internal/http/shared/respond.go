// Package shared centralizes JSON response and error translation for HTTP
// handlers so every endpoint speaks the same envelope.
package shared

import (
	"encoding/json"
	"net/http"

	derrors "evento/pkg/domain-errors"
)

// Envelope is the response wrapper used by list-style endpoints and all error
// responses. Detail endpoints write their payload bare.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes a bare JSON payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes an enveloped success payload.
func WriteData(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError translates a domain error to its HTTP status and envelope. The
// message of coded errors is part of the client contract; uncoded errors are
// masked to avoid leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	message := "internal error"
	if code != derrors.CodeInternal {
		message = err.Error()
	}
	WriteJSON(w, derrors.ToHTTPStatus(code), Envelope{
		Success: false,
		Message: message,
		Error:   string(code),
	})
}

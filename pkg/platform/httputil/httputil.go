// Package httputil centralizes JSON response shaping. WriteError is the only
// place that translates domain errors into HTTP statuses and the uniform
// error envelope, so handlers and services never write status codes directly.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "keygate/pkg/domain-errors"
)

// ErrorBody is the uniform error envelope returned on every failure.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Typed domain errors keep
// their code, message, and details; anything else becomes a generic 500 so
// internal detail never leaks to clients (it is logged server-side instead).
func WriteError(w http.ResponseWriter, err error) {
	body := ErrorBody{
		Code:    string(dErrors.CodeInternal),
		Message: "internal server error",
	}
	status := http.StatusInternalServerError

	var de *dErrors.Error
	if errors.As(err, &de) {
		status = de.Status()
		body.Code = string(de.Code)
		body.Message = de.Message
		body.Details = de.Details
		if de.Code == dErrors.CodeInternal {
			// Internal errors keep the generic message regardless of cause.
			body.Message = "internal server error"
			body.Details = nil
		}
	}

	WriteJSON(w, status, ErrorResponse{Error: body})
}

// Package domainerrors defines the typed error taxonomy for the gateway.
// Every error crossing a service boundary carries a stable machine-readable
// code distinct from its human message so callers can branch on code. The
// HTTP layer is the only place that translates codes into status codes.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error code. Codes are part of the wire
// contract; renaming one is a breaking change for clients.
type Code string

const (
	CodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeTokenExpired         Code = "TOKEN_EXPIRED"
	CodeAuthorizationFailed  Code = "AUTHORIZATION_FAILED"
	CodeInvalidRequest       Code = "INVALID_REQUEST"
	CodeVaultOperationFailed Code = "VAULT_OPERATION_FAILED"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// defaultStatus maps each code to the status it carries unless a constructor
// overrides it. VAULT_OPERATION_FAILED defaults to 500; vault lookups that
// miss use WithStatus(404) so the code stays stable while the status varies.
var defaultStatus = map[Code]int{
	CodeAuthenticationFailed: http.StatusUnauthorized,
	CodeInvalidToken:         http.StatusUnauthorized,
	CodeTokenExpired:         http.StatusUnauthorized,
	CodeAuthorizationFailed:  http.StatusForbidden,
	CodeInvalidRequest:       http.StatusBadRequest,
	CodeVaultOperationFailed: http.StatusInternalServerError,
	CodeInternal:             http.StatusInternalServerError,
}

// Error is the gateway's typed error. It implements error and unwraps to its
// cause so errors.Is/errors.As keep working across layers.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status this error maps to.
func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	if s, ok := defaultStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithStatus overrides the default status for this error's code.
func (e *Error) WithStatus(status int) *Error {
	e.status = status
	return e
}

// WithDetails attaches structured detail fields for the response envelope.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// New constructs a typed error with the default status for its code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a typed error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// StatusOf extracts the HTTP status from err, or 500 for unclassified errors.
func StatusOf(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.Status()
	}
	return http.StatusInternalServerError
}

// Package domainerrors carries coded errors from services up to transport.
// Stores return sentinel errors for infrastructure facts; services translate
// those into coded errors here, and the HTTP layer maps codes to statuses
// without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers that need to branch on outcome class
// rather than on concrete error values.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeConflict    Code = "conflict"
	CodeNotFound    Code = "not_found"
	CodeTimeout     Code = "timeout"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
)

// Error is a coded error. It wraps an optional cause so errors.Is/As keep
// working through the service boundary.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error code to the HTTP status the transport layer
// should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

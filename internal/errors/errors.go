// Package errors defines the domain error kinds shared by the room engine,
// the session store and the transport layers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error kind.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal"
)

// HTTPStatus maps the code onto the auxiliary HTTP surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Client-safe message
	Cause   error  // Wrapped underlying error, never sent to clients
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound is shorthand for Newf(CodeNotFound, ...).
func NotFound(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Conflict is shorthand for Newf(CodeConflict, ...).
func Conflict(format string, args ...any) *Error {
	return Newf(CodeConflict, format, args...)
}

// InvalidInput is shorthand for Newf(CodeInvalidInput, ...).
func InvalidInput(format string, args ...any) *Error {
	return Newf(CodeInvalidInput, format, args...)
}

// Internal wraps a storage or infrastructure failure.
func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}

// CodeOf returns the code carried by err. Errors that are not domain errors
// are internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// PublicMessage is the text that may be shown to a client. Internal failures
// collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if stderrors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return "internal server error"
}

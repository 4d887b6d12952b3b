// Package errors provides structured error types for scorealign.
//
// Error codes make failures machine-readable so the CLI and the HTTP API can
// report them consistently:
//   - INVALID_*: Input or configuration validation failures
//   - *_LOAD_FAILED: Fatal data-load failures (score document, signal levels)
//   - RENDER_FAILED: A score or chart renderer returned an error
//   - INTERNAL_ERROR: Unexpected internal errors
//
// Recoverable layout mismatches (overflow, wrapped systems, missing measures)
// are never reported through this package. They are plain validation values
// handled by the reconciliation loop.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidScore, "score has no parts")
//	if errors.Is(err, errors.ErrCodeInvalidScore) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeSignalLoad, origErr, "load level %d", level)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidScore  Code = "INVALID_SCORE"
	ErrCodeInvalidSignal Code = "INVALID_SIGNAL"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Fatal load errors
	ErrCodeScoreLoad     Code = "SCORE_LOAD_FAILED"
	ErrCodeSignalLoad    Code = "SIGNAL_LOAD_FAILED"
	ErrCodeLevelNotFound Code = "LEVEL_NOT_FOUND"

	// Rendering errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatalLoad reports whether err is a data-load failure that must halt
// initialization (unreachable score document or signal level).
func IsFatalLoad(err error) bool {
	switch GetCode(err) {
	case ErrCodeScoreLoad, ErrCodeSignalLoad, ErrCodeLevelNotFound:
		return true
	}
	return false
}

// HTTPStatus maps an error code onto an HTTP status code.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidPath:
		return 400
	case ErrCodeLevelNotFound:
		return 404
	case ErrCodeInvalidScore, ErrCodeInvalidSignal:
		return 422
	case ErrCodeScoreLoad, ErrCodeSignalLoad, ErrCodeRenderFailed:
		return 502
	}
	return 500
}

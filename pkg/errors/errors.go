// Package errors provides the coded errors shared by the engine, the
// pipeline, the server and the CLI.
//
// # Error Codes
//
//   - INVALID_*: input and configuration validation failures
//   - MALFORMED_*, DEGENERATE_*, EMPTY_*: data problems the layout engine
//     reports as issues and works around (see [Recoverable])
//   - MISSING_GRAPH, DISPOSED: fatal engine conditions
//   - NOT_FOUND, FILE_NOT_FOUND, NETWORK_ERROR, TIMEOUT: lookups and I/O
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedGraph, "link %s -> %s: unknown target", src, dst)
//	if errors.Is(err, errors.ErrCodeMalformedGraph) {
//	    // skip the link
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch avatar %s", url)
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
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Recoverable graph data errors
	ErrCodeMalformedGraph  Code = "MALFORMED_GRAPH"
	ErrCodeDegenerateLabel Code = "DEGENERATE_LABEL"
	ErrCodeEmptyTeam       Code = "EMPTY_TEAM"

	// Fatal data errors
	ErrCodeMissingGraph Code = "MISSING_GRAPH"
	ErrCodeDisposed     Code = "DISPOSED"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether any *Error in err's chain carries code. A roster
// FILE_NOT_FOUND wrapped as INVALID_INPUT matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
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

// Recoverable reports whether err describes a data problem the layout
// engine works around instead of failing.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedGraph, ErrCodeDegenerateLabel, ErrCodeEmptyTeam:
		return true
	}
	return false
}

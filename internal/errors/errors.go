// Package errors defines the structured error type shared by every hostfacts
// component. Each error carries a code that places it in one of the failure
// classes the CLI knows how to report.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig     = "CONFIG"      // invalid or missing connection parameters
	ErrTransfer   = "TRANSFER"    // session could not be opened or artifact not pushed
	ErrRemoteExec = "REMOTE_EXEC" // remote command failed or its output was not read
	ErrCollect    = "COLLECT"     // a telemetry source could not be read
	ErrUsage      = "USAGE"       // malformed command-line input
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
// The outermost structured error in the chain decides.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var hfErr *Error
	if errors.As(err, &hfErr) {
		return hfErr.Code == code
	}
	return false
}

// Code returns the code of the outermost structured error in the chain,
// or an empty string if there is none.
func Code(err error) string {
	var hfErr *Error
	if errors.As(err, &hfErr) {
		return hfErr.Code
	}
	return ""
}

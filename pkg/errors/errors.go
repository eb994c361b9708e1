// Package errors provides structured error types for skillpkgs.
//
// This package defines error codes and types that enable:
//   - Consistent handling of fatal and non-fatal failures across commands
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into two groups. Input errors (INVALID_*, UNKNOWN_SOURCE,
// NO_SHARD_ARTIFACTS) abort the process. Per-repository and per-package
// failures (RESOLUTION_FAILED, FETCH_FAILED, MANIFEST_NOT_FOUND) are
// converted by the update pipeline into an omission or a fallback to the
// previous catalog entry. TRANSPORT_ERROR aborts only the repository
// pipeline that raised it.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidShard, "invalid shard: %s", raw)
//	if errors.Is(err, errors.ErrCodeInvalidShard) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "clone %s", repo)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors (fatal)
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidShard     Code = "INVALID_SHARD"
	ErrCodeInvalidRepo      Code = "INVALID_REPOSITORY"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeUnknownSource    Code = "UNKNOWN_SOURCE"
	ErrCodeNoShardArtifacts Code = "NO_SHARD_ARTIFACTS"

	// Synchronization failures (non-fatal per package)
	ErrCodeResolutionFailed Code = "RESOLUTION_FAILED"
	ErrCodeFetchFailed      Code = "FETCH_FAILED"
	ErrCodeManifestNotFound Code = "MANIFEST_NOT_FOUND"

	// Transport errors (fatal per repository pipeline)
	ErrCodeTransport Code = "TRANSPORT_ERROR"

	// Network errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeNotFound Code = "NOT_FOUND"

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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err should abort the whole process rather than a
// single package or repository pipeline.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidShard, ErrCodeInvalidRepo,
		ErrCodeUnknownSource, ErrCodeNoShardArtifacts:
		return true
	}
	return false
}

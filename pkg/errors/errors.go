// Package errors provides structured error types for sectionflow.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the layout engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (scenes, scripts, flags)
//   - *_MISMATCH, CONTRACT_*: Host contract violations detected by the layout engine
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCountMismatch, "section %d: expected %d items, host reports %d", s, want, got)
//	if errors.Is(err, errors.ErrCodeCountMismatch) {
//	    // Host and batch disagree
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidScene, origErr, "decode %s", path)
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
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidScene  Code = "INVALID_SCENE"
	ErrCodeInvalidScript Code = "INVALID_SCRIPT"

	// Layout contract violations
	ErrCodeContractViolation Code = "CONTRACT_VIOLATION"
	ErrCodeCountMismatch     Code = "COUNT_MISMATCH"
	ErrCodeMissingStrategy   Code = "MISSING_STRATEGY"
	ErrCodeUnknownStrategy   Code = "UNKNOWN_STRATEGY"

	// Replay verification
	ErrCodeDiverged Code = "DIVERGED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// IsContractViolation reports whether err is one of the host contract
// violations the layout engine detects. These indicate a bug in the host
// and are never recovered from silently.
func IsContractViolation(err error) bool {
	switch GetCode(err) {
	case ErrCodeContractViolation, ErrCodeCountMismatch, ErrCodeMissingStrategy:
		return true
	}
	return false
}

// PositionError locates a parse failure in a scene or script file.
type PositionError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface.
func (e *PositionError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

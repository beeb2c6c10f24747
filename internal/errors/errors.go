// Package errors provides unified error handling for the handler framework.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error types
type ErrorCode string

const (
	// Lifetime errors
	ErrCodeConstructFailed ErrorCode = "CONSTRUCT_FAILED"
	ErrCodeNotConstructed  ErrorCode = "NOT_CONSTRUCTED"
	ErrCodeStoreShutdown   ErrorCode = "STORE_SHUTDOWN"

	// Registry errors
	ErrCodeFinalized ErrorCode = "FINALIZED"

	// Reporting errors
	ErrCodeSinkUnavailable ErrorCode = "SINK_UNAVAILABLE"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"

	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// HandlerError represents a structured error with context
type HandlerError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Details  string    `json:"details,omitempty"`
	Internal error     `json:"-"` // Internal error, not exposed
}

// Error implements the error interface
func (e *HandlerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for error wrapping
func (e *HandlerError) Unwrap() error {
	return e.Internal
}

// IsRetryable indicates if the error is temporary and can be retried
func (e *HandlerError) IsRetryable() bool {
	return e.Code == ErrCodeConstructFailed ||
		e.Code == ErrCodeSinkUnavailable ||
		e.Code == ErrCodeRateLimited
}

// Error constructors for common scenarios

// NewConstructionError reports a failed lazy construction of a singleton.
func NewConstructionError(typeName string, internal error) *HandlerError {
	return &HandlerError{
		Code:     ErrCodeConstructFailed,
		Message:  "singleton construction failed",
		Details:  typeName,
		Internal: internal,
	}
}

// NewSinkError reports an unavailable or failing report sink.
func NewSinkError(message string, internal error) *HandlerError {
	return &HandlerError{
		Code:     ErrCodeSinkUnavailable,
		Message:  message,
		Internal: internal,
	}
}

// NewRateLimitedError reports a dropped operation due to throttling.
func NewRateLimitedError(details string) *HandlerError {
	return &HandlerError{
		Code:    ErrCodeRateLimited,
		Message: "operation rate limited",
		Details: details,
	}
}

// NewConfigError reports invalid configuration.
func NewConfigError(message string, details string) *HandlerError {
	return &HandlerError{
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Details: details,
	}
}

// HasCode reports whether err is (or wraps) a HandlerError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var he *HandlerError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

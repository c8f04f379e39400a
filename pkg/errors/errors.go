package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies scraper failures
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeExpansion  ErrorType = "expansion"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeExport     ErrorType = "export"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// TypeOf returns the error type of err, or ErrorTypeUnknown if err carries none
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether an error type aborts the whole run. Per-item
// failures (extraction, expansion) are counted and the batch continues;
// everything else tears the run down after resources are released.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeExtraction, ErrorTypeExpansion:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether an error type is worth another attempt.
// Navigation can be a transient network condition; an invalid session or
// bad parameters will not change between attempts.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeNavigation
}

package errors

import (
	"errors"
	"fmt"
)

// DocsError is the structured error type for the docs backend.
// It provides context for error handling, logging, and user presentation.
type DocsError struct {
	// Code is the unique error code (e.g., "ERR_201_INDEX_OPEN").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Index, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DocsError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DocsError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DocsError.
func (e *DocsError) Is(target error) bool {
	if t, ok := target.(*DocsError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DocsError) WithDetail(key, value string) *DocsError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *DocsError) WithSuggestion(suggestion string) *DocsError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DocsError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DocsError {
	return &DocsError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DocsError from an existing error.
// The error's message becomes the DocsError message.
func Wrap(code string, err error) *DocsError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *DocsError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IndexError creates an index/storage-related error.
func IndexError(message string, cause error) *DocsError {
	return New(ErrCodeIndexOpen, message, cause)
}

// LLMError creates an LLM-backend-related error.
// LLM errors are typically retryable.
func LLMError(message string, cause error) *DocsError {
	return New(ErrCodeLLMUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *DocsError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DocsError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a DocsError with the Retryable flag set.
func IsRetryable(err error) bool {
	var de *DocsError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// CodeOf returns the error code, or empty string for non-structured errors.
func CodeOf(err error) string {
	var de *DocsError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

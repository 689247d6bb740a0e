// Package provider implements the embedding service adapter.
package provider

import "fmt"

// ProviderError describes a failure talking to the embedding service.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("%s: %s", e.operation, e.message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code, or 0 when not applicable.
func (e *ProviderError) StatusCode() int {
	return e.statusCode
}

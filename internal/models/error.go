package models

import (
	"errors"
	"fmt"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeCompletionFailed = "COMPLETION_FAILED"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeProviderBusy     = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// ErrInvalidRequest marks caller errors detected before any provider call.
// Handlers test for it with errors.Is and translate it to a 400.
var ErrInvalidRequest = errors.New("invalid request")

// ErrConfiguration marks a required configuration value that could not be
// resolved even via fallback. A request failing with it cannot proceed.
var ErrConfiguration = errors.New("configuration error")

// CompletionError reports that the blocking completion provider failed
// after exhausting all retry attempts. The last underlying cause is kept
// for diagnostics; user-facing messages never include it verbatim.
type CompletionError struct {
	Attempts int
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

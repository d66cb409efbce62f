package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote API error taxonomy. Every failure surfaced by the API client is one of these.
	ErrUnauthorized      = fmt.Errorf("unauthorized")
	ErrNotFound          = fmt.Errorf("not found")
	ErrInvalidRequest    = fmt.Errorf("invalid request")
	ErrMalformedResponse = fmt.Errorf("malformed response")
	ErrTransport         = fmt.Errorf("transport failure")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// APIError is returned by the API client for every failed remote call.
//
// Kind is one of the taxonomy sentinels; errors.Is matches against it as well as the wrapped cause.
type APIError struct {
	Op     string // Op names the remote operation, e.g. "saved-tracks"
	Status int    // Status is the HTTP status when one was received, else 0
	Kind   error
	Err    error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *APIError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewAPIError builds an [APIError] for op.
func NewAPIError(op string, kind error, status int, err error) *APIError {
	if err == nil {
		err = kind
	}
	return &APIError{Op: op, Status: status, Kind: kind, Err: err}
}

// IsRetryable reports whether err is a malformed-response or transport failure.
//
// Malformed responses are treated as transport issues rather than data-model bugs.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrTransport)
}

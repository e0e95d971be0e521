package sheetapi

import (
	"errors"
	"fmt"
)

// Response body failures.
var (
	ErrMalformed = errors.New("malformed response body")
	ErrNotJSON   = errors.New("response is not JSON")
)

// NetworkError is a transport-level failure.
type NetworkError struct {
	Action string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Action, e.Err)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Action string
	Code   int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.Action, e.Code, e.Body)
}

// RejectedError is a well-formed response carrying an explicit failure flag.
type RejectedError struct {
	Action  string
	Message string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.Message == "" {
		return e.Action + " failed"
	}
	return e.Action + ": " + e.Message
}

// bodyError wraps ErrMalformed / ErrNotJSON with the action name.
func bodyError(action string, sentinel error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%s: %w", action, sentinel)
	}
	return fmt.Errorf("%s: %w: %s", action, sentinel, detail)
}

package endpoints

import (
	"fmt"
	"time"

	"golang.org/x/xerrors"
)

type (
	// AttemptTimeoutError is returned when a single attempt exceeds the request timeout.
	// It is retried like any unclassified error.
	AttemptTimeoutError struct {
		Endpoint string
		Timeout  time.Duration
		Err      error
	}

	// AllEndpointsExhaustedError is the only failure Execute surfaces once routing has started.
	// Err is the last error observed across all endpoints.
	AllEndpointsExhaustedError struct {
		Label string
		Err   error
	}
)

var (
	ErrNoEndpointsConfigured = xerrors.New("no endpoints configured")
	ErrDuplicateEndpoint     = xerrors.New("duplicate endpoint name")
)

var (
	_ xerrors.Wrapper = (*AttemptTimeoutError)(nil)
	_ xerrors.Wrapper = (*AllEndpointsExhaustedError)(nil)
)

func (e *AttemptTimeoutError) Error() string {
	return fmt.Sprintf("AttemptTimeoutError: attempt on %v timed out after %v", e.Endpoint, e.Timeout)
}

func (e *AttemptTimeoutError) Unwrap() error {
	return e.Err
}

func (e *AllEndpointsExhaustedError) Error() string {
	return fmt.Sprintf("AllEndpointsExhaustedError: all endpoints failed for %v: %v", e.Label, e.Err)
}

func (e *AllEndpointsExhaustedError) Unwrap() error {
	return e.Err
}

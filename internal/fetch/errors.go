package fetch

import (
	"errors"
	"fmt"
)

// Client construction errors.
var (
	ErrBaseURLRequired = errors.New("base URL is required")
	ErrInvalidBaseURL  = errors.New("invalid base URL")
)

// ErrRefreshUnavailable is returned by Refresher.Refresh when no refresh
// function is configured.
var ErrRefreshUnavailable = errors.New("token refresh is not configured")

// TransportError reports a request that produced no HTTP response. Results
// carrying it have status 0.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response whose body could not be decoded.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

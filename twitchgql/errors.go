package twitchgql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrNotFound means the video, its owner or its metadata is absent.
	ErrNotFound = errors.New("not found")
	// ErrMalformedResponse means the response did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gql status %d: %s", e.StatusCode, e.Body)
}

// GraphQLError carries the messages of a response's "errors" array.
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("gql %s: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// ErrorClass represents whether an error should be retried or not.
type ErrorClass int

const (
	// ErrorClassRetryable marks transient (timeout-class) failures.
	ErrorClassRetryable ErrorClass = iota
	// ErrorClassFatal marks failures that a retry cannot fix.
	ErrorClassFatal
	// ErrorClassUnknown is reported for a nil error.
	ErrorClassUnknown
)

// String returns a human-readable name for the error class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassRetryable:
		return "retryable"
	case ErrorClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify sorts a feed error into retryable vs fatal.
//
// Only timeouts are retryable: a request that exceeded its per-call
// deadline, or any net.Error reporting Timeout(). Everything else is fatal,
// including connection refused/reset, non-2xx statuses, GraphQL errors and
// schema mismatches.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return ErrorClassFatal
	}
	var se *StatusError
	if errors.As(err, &se) {
		return ErrorClassFatal
	}
	var ge *GraphQLError
	if errors.As(err, &ge) {
		return ErrorClassFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassRetryable
	}
	return ErrorClassFatal
}

// IsTransient reports whether err should trigger a page-fetch retry.
func IsTransient(err error) bool {
	return Classify(err) == ErrorClassRetryable
}

func malformed(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, op, fmt.Sprintf(format, args...))
}

package entity

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors describing why an upstream call failed.
var (
	// ErrUpstream indicates that an upstream answered with a non-2xx status.
	ErrUpstream = errors.New("upstream error")

	// ErrParse indicates that an upstream payload could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrConfig indicates missing or invalid configuration, such as an API key.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError is returned when an upstream responds with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	URL        string
}

// Error returns a formatted error message.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned HTTP %d", e.URL, e.StatusCode)
}

// Is reports ErrUpstream so callers can match with errors.Is.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// timeoutError is satisfied by timeout errors from any package, including
// net.Error implementations.
type timeoutError interface {
	Timeout() bool
}

// Classify returns a short, low-cardinality label for err that is suitable
// for metrics and log fields.
func Classify(err error) string {
	var te timeoutError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te) && te.Timeout():
		return "timeout"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "error"
	}
}

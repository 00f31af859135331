// Package timeout bounds a single unit of work with a deadline.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bayarea-dashboard/internal/observability/metrics"
)

// ErrTimeout matches any *Error via errors.Is.
var ErrTimeout = errors.New("operation timed out")

// Error reports that the labelled operation did not finish within After.
type Error struct {
	Label string
	After time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Label, e.After)
}

// Is reports whether target is ErrTimeout.
func (e *Error) Is(target error) bool {
	return target == ErrTimeout
}

// Timeout marks the error as a timeout for classifiers that probe for it.
func (e *Error) Timeout() bool { return true }

// Do runs fn with a context that expires after d.
//
// If fn returns first, its result is returned unchanged. If the deadline
// passes first, Do returns immediately with a *Error naming label; fn keeps
// running in the background with a cancelled context and its eventual result
// is discarded. Cancellation of the parent context is returned as ctx.Err()
// rather than a timeout.
//
// A panic in fn is returned as an error, since it happens on a goroutine
// the caller cannot recover. A non-positive d disables the bound and runs fn
// on the caller's goroutine.
func Do[T any](ctx context.Context, d time.Duration, label string, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	tErr := &Error{Label: label, After: d}
	tctx, cancel := context.WithTimeoutCause(ctx, d, tErr)
	defer cancel()

	type result struct {
		val T
		err error
	}
	// Buffered so the worker never blocks after the caller has gone.
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%s panicked: %v", label, r)}
			}
		}()
		v, err := fn(tctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-tctx.Done():
		var zero T
		if cause := context.Cause(tctx); errors.Is(cause, ErrTimeout) {
			metrics.RecordTimeout(label)
			return zero, tErr
		}
		return zero, ctx.Err()
	}
}

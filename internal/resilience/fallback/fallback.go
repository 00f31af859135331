// Package fallback runs a primary operation with a single fallback attempt.
package fallback

import (
	"context"
	"log/slog"

	"bayarea-dashboard/internal/observability/logging"
	"bayarea-dashboard/internal/observability/metrics"
)

// Func is one attempt of a fallible operation.
type Func[T any] func(ctx context.Context) (T, error)

// Outcome is the result of Run.
type Outcome[T any] struct {
	Value       T
	Err         error
	ViaFallback bool
}

// OK reports whether either attempt succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Run invokes primary and, if it fails for any reason, invokes fb exactly
// once. When both fail the outcome carries fb's error; primary's error is
// only logged. A nil fb returns primary's outcome as is.
//
// There are no retries: worst-case latency is the sum of the two attempts'
// own bounds.
func Run[T any](ctx context.Context, label string, primary, fb Func[T]) Outcome[T] {
	v, err := primary(ctx)
	if err == nil {
		metrics.RecordFallback(label, "primary")
		return Outcome[T]{Value: v}
	}

	logger := logging.FromContext(ctx)
	if fb == nil {
		logger.Warn("primary failed, no fallback configured",
			slog.String("label", label),
			slog.Any("error", err))
		metrics.RecordFallback(label, "failed")
		return Outcome[T]{Value: v, Err: err}
	}

	logger.Warn("primary failed, trying fallback",
		slog.String("label", label),
		slog.Any("error", err))

	fv, ferr := fb(ctx)
	if ferr != nil {
		logger.Error("fallback failed",
			slog.String("label", label),
			slog.Any("error", ferr))
		metrics.RecordFallback(label, "failed")
		return Outcome[T]{Value: fv, Err: ferr, ViaFallback: true}
	}

	metrics.RecordFallback(label, "fallback")
	return Outcome[T]{Value: fv, ViaFallback: true}
}

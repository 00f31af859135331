// Package limiter caps the number of concurrent calls made to an upstream.
//
// Waiters are admitted in FIFO order. A limiter can optionally also pace
// admissions with a token bucket for upstreams that enforce a per-second
// quota on top of a concurrency cap.
package limiter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"bayarea-dashboard/internal/observability/metrics"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter admits at most Max operations at a time.
// A nil *Limiter admits everything immediately.
type Limiter struct {
	name     string
	max      int64
	sem      *semaphore.Weighted
	pace     *rate.Limiter
	inFlight atomic.Int64
	queued   atomic.Int64
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRate paces admissions to rps per second with the given burst.
// The pacing wait happens after a concurrency slot is acquired, so a paced
// limiter still preserves FIFO order.
func WithRate(rps float64, burst int) Option {
	return func(l *Limiter) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.pace = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a limiter named name that admits max concurrent operations.
// max below 1 is treated as 1.
func New(name string, max int, opts ...Option) *Limiter {
	if max < 1 {
		max = 1
	}
	l := &Limiter{
		name: name,
		max:  int64(max),
		sem:  semaphore.NewWeighted(int64(max)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter name.
func (l *Limiter) Name() string { return l.name }

// Max returns the concurrency cap.
func (l *Limiter) Max() int { return int(l.max) }

// InFlight returns the number of operations currently admitted.
func (l *Limiter) InFlight() int { return int(l.inFlight.Load()) }

// Queued returns the number of operations waiting for a slot.
func (l *Limiter) Queued() int { return int(l.queued.Load()) }

// Do runs op once a slot is free. The slot is released when op returns,
// whether it fails, succeeds or panics. If ctx ends while waiting, op never
// runs and ctx's error is returned.
func (l *Limiter) Do(ctx context.Context, op func(context.Context) error) error {
	if l == nil {
		return op(ctx)
	}

	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()

	return op(ctx)
}

func (l *Limiter) acquire(ctx context.Context) error {
	start := time.Now()

	metrics.LimiterQueued.WithLabelValues(l.name).Set(float64(l.queued.Add(1)))
	err := l.sem.Acquire(ctx, 1)
	metrics.LimiterQueued.WithLabelValues(l.name).Set(float64(l.queued.Add(-1)))
	if err != nil {
		return fmt.Errorf("limiter %s: %w", l.name, err)
	}

	if l.pace != nil {
		if err := l.pace.Wait(ctx); err != nil {
			l.sem.Release(1)
			return fmt.Errorf("limiter %s: %w", l.name, err)
		}
	}

	metrics.RecordLimiterWait(l.name, time.Since(start))
	metrics.LimiterInFlight.WithLabelValues(l.name).Set(float64(l.inFlight.Add(1)))
	return nil
}

func (l *Limiter) release() {
	metrics.LimiterInFlight.WithLabelValues(l.name).Set(float64(l.inFlight.Add(-1)))
	l.sem.Release(1)
}

// Call runs fn through l and returns its value.
func Call[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

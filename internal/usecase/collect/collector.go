// Package collect fans a feed's sources out in parallel and gathers one
// result per source, tolerating partial failure.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/observability/logging"
	"bayarea-dashboard/internal/observability/metrics"
	"bayarea-dashboard/internal/observability/tracing"
	"bayarea-dashboard/internal/resilience/fallback"
	"bayarea-dashboard/internal/resilience/limiter"
	"bayarea-dashboard/internal/resilience/timeout"

	"golang.org/x/sync/errgroup"
)

// FetchFunc retrieves the items of one source.
type FetchFunc func(ctx context.Context) ([]entity.RawItem, error)

// Source describes one upstream call.
type Source struct {
	ID    string
	Label string

	// Fetch is required.
	Fetch FetchFunc

	// Fallback is tried once if Fetch fails or times out.
	Fallback FetchFunc

	// Timeout bounds each attempt separately. Zero means no bound.
	Timeout time.Duration

	// FallbackTimeout overrides Timeout for the fallback attempt.
	FallbackTimeout time.Duration

	// Limiter, if set, guards the primary attempt only.
	Limiter *limiter.Limiter
}

// Collector runs sources concurrently.
type Collector struct {
	logger *slog.Logger
}

// New returns a Collector. A nil logger falls back to the one on the
// request context.
func New(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Collect calls every source in parallel and waits for all of them.
//
// The returned slice has one entry per source, in the order given. A source
// that fails, times out or panics yields an entry with OK false and no
// items; it never fails the collection as a whole.
func (c *Collector) Collect(ctx context.Context, sources []Source) []entity.SourceResult {
	results := make([]entity.SourceResult, len(sources))

	// A plain Group: one failing source must not cancel its siblings.
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = c.collectOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Collector) collectOne(ctx context.Context, src Source) (res entity.SourceResult) {
	logger := c.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	start := time.Now()

	ctx, span := tracing.StartSourceSpan(ctx, src.ID, src.Label)
	res = entity.SourceResult{SourceID: src.ID, Label: src.Label}

	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Items = nil
			res.Err = fmt.Errorf("source %s panicked: %v", src.ID, r)
		}

		elapsed := time.Since(start)
		tracing.EndSourceSpan(span, len(res.Items), res.ViaFallback, res.Err)
		metrics.RecordSourceFetch(src.ID, entity.Classify(res.Err), elapsed, len(res.Items))

		if res.OK {
			logger.Info("source fetched",
				slog.String("source", src.ID),
				slog.Int("items", len(res.Items)),
				slog.Bool("via_fallback", res.ViaFallback),
				slog.Duration("duration", elapsed))
			return
		}
		logger.Warn("source failed",
			slog.String("source", src.ID),
			slog.String("reason", entity.Classify(res.Err)),
			slog.Any("error", res.Err),
			slog.Duration("duration", elapsed))
	}()

	if src.Fetch == nil {
		res.Err = fmt.Errorf("source %s: %w", src.ID, entity.ErrConfig)
		return res
	}

	fetch := guard(src.ID, src.Fetch)
	primary := func(ctx context.Context) ([]entity.RawItem, error) {
		return timeout.Do(ctx, src.Timeout, src.ID, func(ctx context.Context) ([]entity.RawItem, error) {
			return limiter.Call[[]entity.RawItem](ctx, src.Limiter, fetch)
		})
	}

	var secondary fallback.Func[[]entity.RawItem]
	if src.Fallback != nil {
		fb := guard(src.ID+":fallback", src.Fallback)
		fbTimeout := src.FallbackTimeout
		if fbTimeout == 0 {
			fbTimeout = src.Timeout
		}
		secondary = func(ctx context.Context) ([]entity.RawItem, error) {
			return timeout.Do[[]entity.RawItem](ctx, fbTimeout, src.ID+":fallback", fb)
		}
	}

	out := fallback.Run[[]entity.RawItem](ctx, src.ID, primary, secondary)
	res.ViaFallback = out.ViaFallback
	if out.Err != nil {
		res.Err = out.Err
		return res
	}

	res.OK = true
	res.Items = out.Value
	return res
}

// guard turns a panic in fn into an error. Attempts may run on a goroutine
// owned by timeout.Do, where the collector's own recover cannot reach.
func guard(name string, fn FetchFunc) FetchFunc {
	return func(ctx context.Context) (items []entity.RawItem, err error) {
		defer func() {
			if r := recover(); r != nil {
				items = nil
				err = fmt.Errorf("%s panicked: %v", name, r)
			}
		}()
		return fn(ctx)
	}
}

// Package assemble turns a cache key, a TTL and a producer into a response
// envelope, serving from cache when fresh and degrading to the last good
// response when the producer fails.
package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bayarea-dashboard/internal/cache"
	"bayarea-dashboard/internal/observability/logging"
	"bayarea-dashboard/internal/observability/metrics"
	"bayarea-dashboard/internal/resilience/timeout"
	"bayarea-dashboard/pkg/clock"

	"golang.org/x/sync/singleflight"
)

// Producer builds a fresh result. previous is the last cached result for
// the same key, or nil, and may be used to pad a short response.
type Producer func(ctx context.Context, previous *Result) (Result, error)

// Request describes one envelope to assemble.
type Request struct {
	// Key is the cache key.
	Key string

	// Feed labels metrics and logs. Defaults to Key.
	Feed string

	// TTL is the freshness window used both for the cache decision and for
	// the envelope's expiry fields.
	TTL time.Duration

	Source SourceInfo

	// Bypass skips the cache read but still writes the fresh result.
	Bypass bool
}

func (r Request) feed() string {
	if r.Feed != "" {
		return r.Feed
	}
	return r.Key
}

// Assembler serves envelopes backed by a cache.Store.
type Assembler struct {
	store           cache.Store
	clock           clock.Clock
	logger          *slog.Logger
	producerTimeout time.Duration
	group           singleflight.Group
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the clock used for write times and ages.
func WithClock(c clock.Clock) Option {
	return func(a *Assembler) { a.clock = c }
}

// WithLogger sets the logger. By default the request context's logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithProducerTimeout bounds a single producer run. Zero means no bound
// beyond the producer's own per-source timeouts.
func WithProducerTimeout(d time.Duration) Option {
	return func(a *Assembler) { a.producerTimeout = d }
}

// New returns an Assembler over store.
func New(store cache.Store, opts ...Option) *Assembler {
	a := &Assembler{
		store: store,
		clock: clock.System{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch returns the envelope for req. It never returns an error: failures
// degrade to status "stale" or "unavailable".
//
// Concurrent misses on the same key share a single producer run. The
// producer is detached from ctx's cancellation so that a client hanging up
// does not waste a refresh other callers are waiting on.
func (a *Assembler) Fetch(ctx context.Context, req Request, produce Producer) Envelope {
	logger := a.loggerFor(ctx).With(slog.String("feed", req.feed()), slog.String("key", req.Key))

	mode := ModeNormal
	if req.Bypass {
		mode = ModeBypass
	}

	if !req.Bypass {
		entry, ok, err := a.store.Get(ctx, req.Key, req.TTL)
		if err != nil {
			logger.Warn("cache read failed", slog.Any("error", err))
		}
		if ok {
			env, err := a.envelope(entry, req, StatusOK, ModeNormal, true)
			if err == nil {
				return a.finish(req, env)
			}
			logger.Warn("cached payload unreadable, refreshing", slog.Any("error", err))
		}
	}

	v, err, shared := a.group.Do(req.Key, func() (interface{}, error) {
		return a.refresh(context.WithoutCancel(ctx), req, produce, logger)
	})
	if shared {
		metrics.RecordProducerShared(req.feed())
	}
	if err == nil {
		env, encErr := a.envelope(v.(cache.Entry), req, StatusOK, mode, false)
		if encErr == nil {
			return a.finish(req, env)
		}
		err = encErr
	}

	logger.Error("producer failed", slog.Any("error", err))
	return a.finish(req, a.degrade(ctx, req, mode, err, logger))
}

func (a *Assembler) refresh(ctx context.Context, req Request, produce Producer, logger *slog.Logger) (entry cache.Entry, err error) {
	start := a.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("producer panicked: %v", r)
		}
		metrics.RecordProducer(req.feed(), a.clock.Now().Sub(start), err == nil)
	}()

	previous := a.previous(ctx, req.Key, logger)

	res, err := timeout.Do(ctx, a.producerTimeout, "producer:"+req.feed(), func(ctx context.Context) (res Result, err error) {
		// timeout.Do may run this on its own goroutine.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("producer panicked: %v", r)
			}
		}()
		return produce(ctx, previous)
	})
	if err != nil {
		return cache.Entry{}, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("encode result: %w", err)
	}

	// The envelope must report the WrittenAt later hits will read back.
	entry, err = a.store.Set(ctx, req.Key, payload)
	if err != nil {
		logger.Warn("cache write failed", slog.Any("error", err))
		return cache.Entry{Key: req.Key, Payload: payload, WrittenAt: a.clock.Now()}, nil
	}
	return entry, nil
}

func (a *Assembler) previous(ctx context.Context, key string, logger *slog.Logger) *Result {
	entry, ok, err := a.store.GetStale(ctx, key)
	if err != nil {
		logger.Warn("stale read failed", slog.Any("error", err))
		return nil
	}
	if !ok {
		return nil
	}
	var prev Result
	if err := json.Unmarshal(entry.Payload, &prev); err != nil {
		logger.Warn("previous payload unreadable", slog.Any("error", err))
		return nil
	}
	return &prev
}

func (a *Assembler) degrade(ctx context.Context, req Request, mode string, cause error, logger *slog.Logger) Envelope {
	entry, ok, err := a.store.GetStale(ctx, req.Key)
	if err != nil {
		logger.Warn("stale read failed", slog.Any("error", err))
	}
	if ok {
		env, err := a.envelope(entry, req, StatusStale, ModeStale, true)
		if err == nil {
			logger.Warn("serving stale response", slog.Int("age_seconds", env.CacheAgeSeconds))
			return env
		}
		logger.Warn("stale payload unreadable", slog.Any("error", err))
	}

	return Envelope{
		Status:     StatusUnavailable,
		AsOf:       a.clock.Now().UTC(),
		Source:     req.Source,
		TTLSeconds: seconds(req.TTL),
		CacheMode:  mode,
		Error:      cause.Error(),
	}
}

// envelope builds the response for entry. Age and expiry derive from the
// same WrittenAt and TTL that decided freshness.
func (a *Assembler) envelope(entry cache.Entry, req Request, status, mode string, hit bool) (Envelope, error) {
	var body stored
	if err := json.Unmarshal(entry.Payload, &body); err != nil {
		return Envelope{}, fmt.Errorf("decode cached payload: %w", err)
	}

	now := a.clock.Now()
	return Envelope{
		Status:                status,
		Items:                 body.Items,
		Value:                 body.Value,
		Count:                 len(body.Items),
		AsOf:                  entry.WrittenAt.UTC(),
		Source:                req.Source,
		TTLSeconds:            seconds(req.TTL),
		CacheHit:              hit,
		CacheMode:             mode,
		CacheAgeSeconds:       seconds(entry.Age(now)),
		CacheExpiresInSeconds: seconds(entry.ExpiresIn(req.TTL, now)),
		ViaFallback:           body.ViaFallback,
	}, nil
}

func (a *Assembler) finish(req Request, env Envelope) Envelope {
	metrics.RecordFeedResponse(req.feed(), env.Status, env.CacheMode)
	return env
}

func (a *Assembler) loggerFor(ctx context.Context) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return logging.FromContext(ctx)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

package upstream

import (
	"context"
	"net/http"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"
	"bayarea-dashboard/internal/resilience/limiter"
	"bayarea-dashboard/internal/usecase/collect"
	"bayarea-dashboard/internal/usecase/feed"
)

// Factory builds callable sources from catalog specs. It implements
// feed.SourceBuilder.
type Factory struct {
	rss            *RSSFetcher
	html           *HTMLScraper
	json           *JSONFetcher
	limiters       *limiter.Registry
	defaultTimeout time.Duration
}

// FactoryConfig configures NewFactory.
type FactoryConfig struct {
	Client         *http.Client
	UserAgent      string
	Limiters       *limiter.Registry
	DefaultTimeout time.Duration
}

// NewFactory returns a Factory. Feed and API hosts share one breaker set;
// scraped hosts get a separate, more patient one.
func NewFactory(cfg FactoryConfig) *Factory {
	api := circuitbreaker.NewSet(circuitbreaker.DefaultConfig)
	pages := circuitbreaker.NewSet(circuitbreaker.ScraperConfig)

	return &Factory{
		rss:            NewRSSFetcher(cfg.Client, cfg.UserAgent, api),
		html:           NewHTMLScraper(cfg.Client, cfg.UserAgent, pages),
		json:           NewJSONFetcher(cfg.Client, cfg.UserAgent, api),
		limiters:       cfg.Limiters,
		defaultTimeout: cfg.DefaultTimeout,
	}
}

// NewLimiterRegistry registers every limiter declared in the catalog.
func NewLimiterRegistry(specs []config.LimiterSpec) *limiter.Registry {
	reg := limiter.NewRegistry()
	for _, s := range specs {
		var opts []limiter.Option
		if s.RatePerSecond > 0 {
			opts = append(opts, limiter.WithRate(s.RatePerSecond, s.Burst))
		}
		reg.Register(s.Name, s.MaxInFlight, opts...)
	}
	return reg
}

// Source builds a list source. The spec's limiter guards the primary
// attempt; a fallback that names its own limiter is guarded by it.
func (f *Factory) Source(spec config.SourceSpec) collect.Source {
	src := collect.Source{
		ID:      spec.ID,
		Label:   spec.Label,
		Fetch:   f.list(spec),
		Timeout: f.timeout(spec),
		Limiter: f.limiters.Get(spec.Limiter),
	}
	if fb := spec.Fallback; fb != nil {
		fb := f.inherit(spec, *fb)
		src.Fallback = f.guarded(fb.Limiter, f.list(fb))
		src.FallbackTimeout = f.timeout(fb)
	}
	return src
}

// Value builds a value source.
func (f *Factory) Value(spec config.SourceSpec) feed.ValueSource {
	vs := feed.ValueSource{
		ID:      spec.ID,
		Fetch:   f.value(spec),
		Timeout: f.timeout(spec),
		Limiter: f.limiters.Get(spec.Limiter),
	}
	if fb := spec.Fallback; fb != nil {
		fb := f.inherit(spec, *fb)
		lim := f.limiters.Get(fb.Limiter)
		fetch := f.value(fb)
		vs.Fallback = func(ctx context.Context) (any, error) {
			return limiter.Call[any](ctx, lim, fetch)
		}
		vs.FallbackTimeout = f.timeout(fb)
	}
	return vs
}

func (f *Factory) list(spec config.SourceSpec) collect.FetchFunc {
	switch spec.Type {
	case config.SourceHTML:
		return func(ctx context.Context) ([]entity.RawItem, error) { return f.html.Fetch(ctx, spec) }
	case config.SourceJSON:
		return func(ctx context.Context) ([]entity.RawItem, error) { return f.json.Fetch(ctx, spec) }
	default:
		return func(ctx context.Context) ([]entity.RawItem, error) { return f.rss.Fetch(ctx, spec) }
	}
}

func (f *Factory) value(spec config.SourceSpec) feed.ValueFunc {
	return func(ctx context.Context) (any, error) { return f.json.Value(ctx, spec) }
}

func (f *Factory) guarded(name string, fetch collect.FetchFunc) collect.FetchFunc {
	lim := f.limiters.Get(name)
	if lim == nil {
		return fetch
	}
	return func(ctx context.Context) ([]entity.RawItem, error) {
		return limiter.Call[[]entity.RawItem](ctx, lim, fetch)
	}
}

// inherit fills a fallback's identity fields from its parent.
func (f *Factory) inherit(parent, fb config.SourceSpec) config.SourceSpec {
	if fb.ID == "" {
		fb.ID = parent.ID + ":fallback"
	}
	if fb.Label == "" {
		fb.Label = parent.Label
	}
	if fb.MaxItems == 0 {
		fb.MaxItems = parent.MaxItems
	}
	return fb
}

func (f *Factory) timeout(spec config.SourceSpec) time.Duration {
	if spec.Timeout > 0 {
		return spec.Timeout
	}
	return f.defaultTimeout
}

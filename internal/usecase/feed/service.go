// Package feed serves the catalog's feeds: it builds each feed's sources
// once, and on request composes collection, ordering and filtering into a
// producer for the response assembler.
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/fallback"
	"bayarea-dashboard/internal/resilience/limiter"
	"bayarea-dashboard/internal/resilience/timeout"
	"bayarea-dashboard/internal/usecase/assemble"
	"bayarea-dashboard/internal/usecase/collect"
	"bayarea-dashboard/internal/usecase/interleave"
	"bayarea-dashboard/internal/usecase/relevance"
	"bayarea-dashboard/pkg/clock"
)

// ValueFunc fetches a single scalar or object value.
type ValueFunc func(ctx context.Context) (any, error)

// ValueSource describes the upstream of a value feed.
type ValueSource struct {
	ID              string
	Fetch           ValueFunc
	Fallback        ValueFunc
	Timeout         time.Duration
	FallbackTimeout time.Duration
	Limiter         *limiter.Limiter
}

// SourceBuilder turns catalog source specs into callable sources.
type SourceBuilder interface {
	Source(spec config.SourceSpec) collect.Source
	Value(spec config.SourceSpec) ValueSource
}

// Summary describes a feed for listing.
type Summary struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	TTLSeconds int      `json:"ttlSeconds"`
	Categories []string `json:"categories,omitempty"`
	Source     string   `json:"source"`
}

type plan struct {
	spec    config.FeedSpec
	sources []collect.Source
	value   ValueSource
}

// Service answers feed requests.
type Service struct {
	plans     map[string]*plan
	order     []string
	collector *collect.Collector
	assembler *assemble.Assembler
	filter    *relevance.Filter
	clock     clock.Clock
}

// NewService builds every feed in catalog with builder. A nil filter uses
// the default relevance configuration; a nil clock uses the system clock.
func NewService(
	catalog *config.Catalog,
	builder SourceBuilder,
	collector *collect.Collector,
	assembler *assemble.Assembler,
	filter *relevance.Filter,
	clk clock.Clock,
) *Service {
	if filter == nil {
		filter = relevance.NewFilter(relevance.DefaultConfig())
	}
	if clk == nil {
		clk = clock.System{}
	}

	s := &Service{
		plans:     make(map[string]*plan, len(catalog.Feeds)),
		collector: collector,
		assembler: assembler,
		filter:    filter,
		clock:     clk,
	}
	for _, spec := range catalog.Feeds {
		p := &plan{spec: spec}
		if spec.Kind == config.KindValue {
			p.value = builder.Value(spec.Sources[0])
		} else {
			for _, src := range spec.Sources {
				p.sources = append(p.sources, builder.Source(src))
			}
		}
		s.plans[spec.Name] = p
		s.order = append(s.order, spec.Name)
	}
	return s
}

// Feeds lists the configured feeds in catalog order.
func (s *Service) Feeds() []Summary {
	out := make([]Summary, 0, len(s.order))
	for _, name := range s.order {
		spec := s.plans[name].spec
		cats := make([]string, 0, len(spec.Categories))
		for c := range spec.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		out = append(out, Summary{
			Name:       spec.Name,
			Kind:       spec.Kind,
			TTLSeconds: int(spec.TTL / time.Second),
			Categories: cats,
			Source:     spec.Display.Name,
		})
	}
	return out
}

// Get returns the envelope for feed name, optionally narrowed to category.
// The only errors are ErrFeedNotFound and ErrCategoryNotFound; upstream
// trouble is reported inside the envelope.
func (s *Service) Get(ctx context.Context, name, category string, bypass bool) (assemble.Envelope, error) {
	p, ok := s.plans[name]
	if !ok {
		return assemble.Envelope{}, fmt.Errorf("%w: %s", ErrFeedNotFound, name)
	}

	sources := p.sources
	key := "feed:" + name
	if category != "" {
		members, ok := p.spec.Categories[category]
		if !ok {
			return assemble.Envelope{}, fmt.Errorf("%w: %s/%s", ErrCategoryNotFound, name, category)
		}
		sources = pick(p.sources, members)
		key += ":" + category
	}

	req := assemble.Request{
		Key:    key,
		Feed:   name,
		TTL:    p.spec.TTL,
		Source: assemble.SourceInfo{Name: p.spec.Display.Name, URL: p.spec.Display.URL},
		Bypass: bypass,
	}
	return s.assembler.Fetch(ctx, req, s.producer(p, sources)), nil
}

func (s *Service) producer(p *plan, sources []collect.Source) assemble.Producer {
	switch p.spec.Kind {
	case config.KindValue:
		return func(ctx context.Context, _ *assemble.Result) (assemble.Result, error) {
			return s.produceValue(ctx, p.value)
		}
	case config.KindRelevance:
		return func(ctx context.Context, prev *assemble.Result) (assemble.Result, error) {
			return s.produceRelevant(ctx, sources, prev)
		}
	default:
		return func(ctx context.Context, _ *assemble.Result) (assemble.Result, error) {
			return s.produceDiverse(ctx, p.spec, sources)
		}
	}
}

func (s *Service) produceDiverse(ctx context.Context, spec config.FeedSpec, sources []collect.Source) (assemble.Result, error) {
	results := s.collector.Collect(ctx, sources)
	if err := allFailed(results); err != nil {
		return assemble.Result{}, err
	}

	k := spec.HeadSize
	if k == 0 {
		k = interleave.DefaultHeadSize
	}
	items := interleave.Diverse(results, k)
	if spec.Limit > 0 && len(items) > spec.Limit {
		items = items[:spec.Limit]
	}
	return assemble.Result{Items: items}, nil
}

func (s *Service) produceRelevant(ctx context.Context, sources []collect.Source, prev *assemble.Result) (assemble.Result, error) {
	results := s.collector.Collect(ctx, sources)
	if err := allFailed(results); err != nil {
		return assemble.Result{}, err
	}

	items := s.filter.Apply(entity.Flatten(results), s.clock.Now())
	if prev != nil {
		items = relevance.Pad(items, prev.Items, s.filter.Limit())
	}
	return assemble.Result{Items: items}, nil
}

func (s *Service) produceValue(ctx context.Context, src ValueSource) (assemble.Result, error) {
	if src.Fetch == nil {
		return assemble.Result{}, fmt.Errorf("value source %s: %w", src.ID, entity.ErrConfig)
	}

	primary := func(ctx context.Context) (any, error) {
		return timeout.Do(ctx, src.Timeout, src.ID, func(ctx context.Context) (any, error) {
			return limiter.Call[any](ctx, src.Limiter, src.Fetch)
		})
	}

	var secondary fallback.Func[any]
	if src.Fallback != nil {
		d := src.FallbackTimeout
		if d == 0 {
			d = src.Timeout
		}
		secondary = func(ctx context.Context) (any, error) {
			return timeout.Do[any](ctx, d, src.ID+":fallback", src.Fallback)
		}
	}

	out := fallback.Run[any](ctx, src.ID, primary, secondary)
	if out.Err != nil {
		return assemble.Result{}, out.Err
	}
	return assemble.Result{Value: out.Value, ViaFallback: out.ViaFallback}, nil
}

// allFailed returns ErrAllSourcesFailed, joined with every source's error,
// when no source succeeded.
func allFailed(results []entity.SourceResult) error {
	errs := []error{ErrAllSourcesFailed}
	for _, r := range results {
		if r.OK {
			return nil
		}
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.SourceID, r.Err))
		}
	}
	return errors.Join(errs...)
}

func pick(sources []collect.Source, ids []string) []collect.Source {
	out := make([]collect.Source, 0, len(ids))
	for _, src := range sources {
		if slices.Contains(ids, src.ID) {
			out = append(out, src)
		}
	}
	return out
}

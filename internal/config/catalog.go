package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed kinds.
const (
	KindDiverse   = "diverse"
	KindRelevance = "relevance"
	KindValue     = "value"
)

// Source types.
const (
	SourceRSS  = "rss"
	SourceHTML = "html"
	SourceJSON = "json"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog declares every feed the service can serve.
type Catalog struct {
	Limiters []LimiterSpec `yaml:"limiters"`
	Feeds    []FeedSpec    `yaml:"feeds"`
}

// LimiterSpec declares a limiter shared by every source that names it.
type LimiterSpec struct {
	Name          string  `yaml:"name"`
	MaxInFlight   int     `yaml:"max_in_flight"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// FeedSpec declares one feed.
type FeedSpec struct {
	Name    string        `yaml:"name"`
	Kind    string        `yaml:"kind"`
	TTL     time.Duration `yaml:"ttl"`
	Display DisplaySpec   `yaml:"source"`

	// HeadSize is the number of distinct sources promoted to the top of a
	// diverse feed. Zero uses the interleaver default.
	HeadSize int `yaml:"head_size"`

	// Limit truncates diverse feeds. Zero keeps everything.
	Limit int `yaml:"limit"`

	// Categories map a category name to the IDs of the sources it uses.
	Categories map[string][]string `yaml:"categories"`

	Sources []SourceSpec `yaml:"sources"`
}

// DisplaySpec is the attribution shown with a feed.
type DisplaySpec struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SourceSpec declares one upstream call.
type SourceSpec struct {
	ID       string            `yaml:"id"`
	Label    string            `yaml:"label"`
	Type     string            `yaml:"type"`
	URL      string            `yaml:"url"`
	Timeout  time.Duration     `yaml:"timeout"`
	Limiter  string            `yaml:"limiter"`
	MaxItems int               `yaml:"max_items"`
	Headers  map[string]string `yaml:"headers"`
	HTML     *HTMLSpec         `yaml:"html"`
	JSON     *JSONSpec         `yaml:"json"`
	Fallback *SourceSpec       `yaml:"fallback"`
}

// HTMLSpec holds the CSS selectors used to scrape a listing page.
// Field selectors are evaluated relative to each Item match.
type HTMLSpec struct {
	Item       string `yaml:"item"`
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Summary    string `yaml:"summary"`
	Date       string `yaml:"date"`
	DateAttr   string `yaml:"date_attr"`
	DateLayout string `yaml:"date_layout"`
	Replies    string `yaml:"replies"`
	Views      string `yaml:"views"`
	BaseURL    string `yaml:"base_url"`
}

// JSONSpec holds gjson paths into an API response.
//
// In list mode Items selects the array and the field paths are evaluated
// against each element. In value mode Value selects a single result.
type JSONSpec struct {
	Items     string `yaml:"items"`
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	URL       string `yaml:"url"`
	URLPrefix string `yaml:"url_prefix"`
	Summary   string `yaml:"summary"`
	Date      string `yaml:"date"`
	Replies   string `yaml:"replies"`
	Views     string `yaml:"views"`
	Heat      string `yaml:"heat"`

	Value string `yaml:"value"`

	// APIKeyEnv names the environment variable holding the API key. The key
	// is sent as APIKeyParam query parameter or APIKeyHeader header.
	APIKeyEnv    string `yaml:"api_key_env"`
	APIKeyParam  string `yaml:"api_key_param"`
	APIKeyHeader string `yaml:"api_key_header"`
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Feed returns the feed named name.
func (c *Catalog) Feed(name string) (FeedSpec, bool) {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f, true
		}
	}
	return FeedSpec{}, false
}

// Validate reports every problem in the catalog.
func (c *Catalog) Validate() error {
	var errs []error

	limiters := make(map[string]bool, len(c.Limiters))
	for i, l := range c.Limiters {
		switch {
		case l.Name == "":
			errs = append(errs, fmt.Errorf("limiters[%d]: name is required", i))
		case limiters[l.Name]:
			errs = append(errs, fmt.Errorf("limiter %q: duplicate name", l.Name))
		}
		if l.MaxInFlight < 1 {
			errs = append(errs, fmt.Errorf("limiter %q: max_in_flight must be at least 1", l.Name))
		}
		if l.RatePerSecond < 0 {
			errs = append(errs, fmt.Errorf("limiter %q: rate_per_second must not be negative", l.Name))
		}
		limiters[l.Name] = true
	}

	if len(c.Feeds) == 0 {
		errs = append(errs, errors.New("at least one feed is required"))
	}

	feeds := make(map[string]bool, len(c.Feeds))
	for i, f := range c.Feeds {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("feeds[%d]", i)
			errs = append(errs, fmt.Errorf("%s: name is required", name))
		} else if feeds[name] {
			errs = append(errs, fmt.Errorf("feed %q: duplicate name", name))
		}
		feeds[f.Name] = true

		errs = append(errs, f.validate(name, limiters)...)
	}

	return errors.Join(errs...)
}

func (f FeedSpec) validate(name string, limiters map[string]bool) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("feed %q: "+format, append([]any{name}, args...)...))
	}

	switch f.Kind {
	case KindDiverse, KindRelevance:
	case KindValue:
		if len(f.Sources) != 1 {
			fail("value feeds take exactly one source, got %d", len(f.Sources))
		}
		for _, s := range f.Sources {
			for src := &s; src != nil; src = src.Fallback {
				if src.Type != SourceJSON || src.JSON == nil || src.JSON.Value == "" {
					fail("source %q: value feeds need a json source with a value path", src.ID)
				}
			}
		}
	default:
		fail("unknown kind %q", f.Kind)
	}

	if f.TTL <= 0 {
		fail("ttl must be positive")
	}
	if f.HeadSize < 0 || f.Limit < 0 {
		fail("head_size and limit must not be negative")
	}
	if len(f.Sources) == 0 {
		fail("at least one source is required")
	}

	ids := make(map[string]bool, len(f.Sources))
	for i, s := range f.Sources {
		if s.ID != "" && ids[s.ID] {
			fail("duplicate source id %q", s.ID)
		}
		ids[s.ID] = true
		for _, err := range s.validate(fmt.Sprintf("sources[%d]", i), limiters, false) {
			fail("%w", err)
		}
	}

	for cat, members := range f.Categories {
		if len(members) == 0 {
			fail("category %q has no sources", cat)
		}
		for _, id := range members {
			if !ids[id] {
				fail("category %q references unknown source %q", cat, id)
			}
		}
	}

	return errs
}

// validate checks s. A fallback may omit its ID and may not chain further.
func (s SourceSpec) validate(where string, limiters map[string]bool, isFallback bool) []error {
	var errs []error
	if s.ID != "" {
		where = s.ID
	}
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("source %q: "+format, append([]any{where}, args...)...))
	}

	if s.ID == "" && !isFallback {
		fail("id is required")
	}
	if s.URL == "" {
		fail("url is required")
	}
	if s.Timeout < 0 {
		fail("timeout must not be negative")
	}
	if s.Limiter != "" && !limiters[s.Limiter] {
		fail("unknown limiter %q", s.Limiter)
	}

	switch s.Type {
	case SourceRSS:
	case SourceHTML:
		if s.HTML == nil || s.HTML.Item == "" || s.HTML.Title == "" {
			fail("html sources need item and title selectors")
		}
	case SourceJSON:
		if s.JSON == nil {
			fail("json sources need a json section")
		} else if s.JSON.Value == "" && (s.JSON.Items == "" || s.JSON.Title == "") {
			fail("json sources need either a value path or items and title paths")
		}
	default:
		fail("unknown type %q", s.Type)
	}

	if s.Fallback != nil {
		if isFallback {
			fail("a fallback cannot have its own fallback")
		} else {
			errs = append(errs, s.Fallback.validate(where+":fallback", limiters, true)...)
		}
	}
	return errs
}

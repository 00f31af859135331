package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"bayarea-dashboard/internal/config"
	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"

	"github.com/tidwall/gjson"
)

// JSONFetcher reads JSON APIs, either as a list of items or as one value.
type JSONFetcher struct {
	http   *getter
	getenv func(string) string
}

// NewJSONFetcher returns a JSONFetcher.
func NewJSONFetcher(client *http.Client, userAgent string, breakers *circuitbreaker.Set) *JSONFetcher {
	return &JSONFetcher{http: newGetter(client, userAgent, breakers), getenv: os.Getenv}
}

// Fetch returns the items selected by spec.JSON.Items.
func (f *JSONFetcher) Fetch(ctx context.Context, spec config.SourceSpec) ([]entity.RawItem, error) {
	doc, err := f.load(ctx, spec)
	if err != nil {
		return nil, err
	}
	paths := *spec.JSON

	list := doc.Get(paths.Items)
	if !list.IsArray() {
		return nil, fmt.Errorf("path %q in %s is not an array: %w", paths.Items, redact(spec.URL), entity.ErrParse)
	}

	var items []entity.RawItem
	list.ForEach(func(_, el gjson.Result) bool {
		title := strings.TrimSpace(el.Get(paths.Title).String())
		if title == "" {
			return true
		}

		link := el.Get(paths.URL).String()
		if link != "" && paths.URLPrefix != "" && !strings.HasPrefix(link, "http") {
			link = strings.TrimRight(paths.URLPrefix, "/") + "/" + strings.TrimLeft(link, "/")
		}

		id := ""
		if paths.ID != "" {
			id = el.Get(paths.ID).String()
		}
		if id == "" {
			id = link
		}
		if id == "" {
			id = spec.ID + ":" + title
		}

		item := entity.RawItem{
			ID:    id,
			Title: title,
			URL:   link,
		}
		if paths.Summary != "" {
			item.Summary = plainText(el.Get(paths.Summary).String(), maxSummaryRunes)
		}
		if paths.Date != "" {
			item.PublishedAt = jsonTime(el.Get(paths.Date))
		}
		if paths.Replies != "" {
			item.Engagement.Replies = int(el.Get(paths.Replies).Int())
		}
		if paths.Views != "" {
			item.Engagement.Views = int(el.Get(paths.Views).Int())
		}
		if paths.Heat != "" {
			item.Engagement.Heat = int(el.Get(paths.Heat).Int())
		}

		items = append(items, item)
		return spec.MaxItems <= 0 || len(items) < spec.MaxItems
	})
	return items, nil
}

// Value returns the single value selected by spec.JSON.Value, decoded into
// plain Go values (maps, slices, float64, string, bool).
func (f *JSONFetcher) Value(ctx context.Context, spec config.SourceSpec) (any, error) {
	doc, err := f.load(ctx, spec)
	if err != nil {
		return nil, err
	}
	v := doc.Get(spec.JSON.Value)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, fmt.Errorf("path %q missing in %s: %w", spec.JSON.Value, redact(spec.URL), entity.ErrParse)
	}
	return v.Value(), nil
}

func (f *JSONFetcher) load(ctx context.Context, spec config.SourceSpec) (gjson.Result, error) {
	if spec.JSON == nil {
		return gjson.Result{}, fmt.Errorf("source %s has no json paths: %w", spec.ID, entity.ErrConfig)
	}

	target, headers, err := f.authorize(spec)
	if err != nil {
		return gjson.Result{}, err
	}

	body, err := f.http.get(ctx, target, headers)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid json from %s: %w", redact(spec.URL), entity.ErrParse)
	}
	return gjson.ParseBytes(body), nil
}

// authorize attaches the API key named by spec.JSON.APIKeyEnv.
func (f *JSONFetcher) authorize(spec config.SourceSpec) (string, map[string]string, error) {
	paths := spec.JSON
	if paths.APIKeyEnv == "" {
		return spec.URL, spec.Headers, nil
	}

	key := f.getenv(paths.APIKeyEnv)
	if key == "" {
		return "", nil, fmt.Errorf("%s is not set: %w", paths.APIKeyEnv, entity.ErrConfig)
	}

	headers := make(map[string]string, len(spec.Headers)+1)
	for k, v := range spec.Headers {
		headers[k] = v
	}
	if paths.APIKeyHeader != "" {
		headers[paths.APIKeyHeader] = key
	}

	target := spec.URL
	if paths.APIKeyParam != "" {
		u, err := url.Parse(spec.URL)
		if err != nil {
			return "", nil, fmt.Errorf("invalid upstream url: %w", entity.ErrConfig)
		}
		q := u.Query()
		q.Set(paths.APIKeyParam, key)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	return target, headers, nil
}

// jsonTime reads unix seconds, unix milliseconds or a date string.
func jsonTime(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.Number:
		n := r.Int()
		if n <= 0 {
			return time.Time{}
		}
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	case gjson.String:
		return parseDate(r.String(), "")
	default:
		return time.Time{}
	}
}

// Package upstream adapts third-party feeds and APIs to entity.RawItem.
//
// Three adapters cover the catalog's source types: RSS/Atom via gofeed, HTML
// listing pages via goquery, and JSON APIs via gjson. All of them share one
// HTTP helper that enforces a body cap, maps non-2xx answers to
// *entity.UpstreamError and routes requests through a per-host circuit
// breaker.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"
)

const maxBodySize = 10 * 1024 * 1024 // 10MB

// getter performs GET requests on behalf of the adapters.
type getter struct {
	client    *http.Client
	userAgent string
	breakers  *circuitbreaker.Set
}

func newGetter(client *http.Client, userAgent string, breakers *circuitbreaker.Set) *getter {
	if client == nil {
		client = http.DefaultClient
	}
	return &getter{client: client, userAgent: userAgent, breakers: breakers}
}

// get fetches rawURL and returns the (capped) body.
func (g *getter) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid upstream url %q: %w", rawURL, entity.ErrConfig)
	}

	var cb *circuitbreaker.CircuitBreaker
	if g.breakers != nil {
		cb = g.breakers.For(u.Host)
	}

	body, err := circuitbreaker.Execute(cb, func() ([]byte, error) {
		return g.do(ctx, u.String(), headers)
	})
	if err != nil && cb != nil && cb.IsOpen() {
		slog.Warn("upstream circuit open, request rejected",
			slog.String("host", u.Host),
			slog.String("state", cb.State().String()))
	}
	return body, err
}

func (g *getter) do(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", redact(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &entity.UpstreamError{StatusCode: resp.StatusCode, URL: redact(rawURL)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", redact(rawURL), err)
	}
	return body, nil
}

// redact strips the query string, which may carry an API key, from URLs
// that end up in errors and logs.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_BuiltIn(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	for _, name := range []string{"news", "videos", "community", "weather", "gas"} {
		f, ok := c.Feed(name)
		require.True(t, ok, name)
		assert.Positive(t, f.TTL, name)
	}

	news, _ := c.Feed("news")
	assert.Equal(t, KindDiverse, news.Kind)
	assert.Equal(t, 4, news.HeadSize)
	assert.ElementsMatch(t, []string{"local", "tech"}, keys(news.Categories))

	community, _ := c.Feed("community")
	assert.Equal(t, KindRelevance, community.Kind)

	weather, _ := c.Feed("weather")
	assert.Equal(t, KindValue, weather.Kind)
	require.NotNil(t, weather.Sources[0].Fallback)
	assert.Equal(t, "current_weather", weather.Sources[0].Fallback.JSON.Value)

	_, ok := c.Feed("missing")
	assert.False(t, ok)
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
limiters:
  - name: api
    max_in_flight: 1
feeds:
  - name: one
    kind: diverse
    ttl: 90s
    source: {name: One, url: https://one.example}
    sources:
      - id: a
        type: rss
        url: https://one.example/feed
        timeout: 2s
        limiter: api
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Feeds, 1)

	f := c.Feeds[0]
	assert.Equal(t, 90*time.Second, f.TTL)
	assert.Equal(t, "One", f.Display.Name)
	assert.Equal(t, 2*time.Second, f.Sources[0].Timeout)
	assert.Equal(t, "api", f.Sources[0].Limiter)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read catalog")
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "malformed",
			yaml:    "feeds: [",
			wantErr: []string{"parse catalog"},
		},
		{
			name:    "no feeds",
			yaml:    "feeds: []",
			wantErr: []string{"at least one feed"},
		},
		{
			name: "duplicate feed and bad kind",
			yaml: `
feeds:
  - {name: x, kind: diverse, ttl: 1m, sources: [{id: a, type: rss, url: u}]}
  - {name: x, kind: mystery, ttl: 1m, sources: [{id: a, type: rss, url: u}]}
`,
			wantErr: []string{`feed "x": duplicate name`, `unknown kind "mystery"`},
		},
		{
			name: "ttl and sources",
			yaml: `
feeds:
  - {name: x, kind: diverse, ttl: 0s}
`,
			wantErr: []string{"ttl must be positive", "at least one source"},
		},
		{
			name: "source problems",
			yaml: `
feeds:
  - name: x
    kind: diverse
    ttl: 1m
    sources:
      - {id: a, type: ftp, url: u}
      - {id: a, type: rss, url: u, limiter: ghost}
      - {id: h, type: html, url: u}
      - {id: j, type: json, url: u, json: {items: list}}
      - {type: rss}
`,
			wantErr: []string{
				`unknown type "ftp"`,
				`duplicate source id "a"`,
				`unknown limiter "ghost"`,
				"item and title selectors",
				"value path or items and title paths",
				"id is required",
				"url is required",
			},
		},
		{
			name: "category references unknown source",
			yaml: `
feeds:
  - name: x
    kind: diverse
    ttl: 1m
    categories: {local: [a, z]}
    sources: [{id: a, type: rss, url: u}]
`,
			wantErr: []string{`category "local" references unknown source "z"`},
		},
		{
			name: "value feed needs one json value source",
			yaml: `
feeds:
  - name: v
    kind: value
    ttl: 1m
    sources:
      - {id: a, type: rss, url: u}
      - {id: b, type: rss, url: u}
`,
			wantErr: []string{"exactly one source", "json source with a value path"},
		},
		{
			name: "nested fallback",
			yaml: `
feeds:
  - name: x
    kind: diverse
    ttl: 1m
    sources:
      - id: a
        type: rss
        url: u
        fallback:
          type: rss
          url: u2
          fallback: {type: rss, url: u3}
`,
			wantErr: []string{"cannot have its own fallback"},
		},
		{
			name: "limiter problems",
			yaml: `
limiters:
  - {name: l, max_in_flight: 0}
  - {name: l, max_in_flight: 1, rate_per_second: -1}
feeds:
  - {name: x, kind: diverse, ttl: 1m, sources: [{id: a, type: rss, url: u}]}
`,
			wantErr: []string{"max_in_flight must be at least 1", `limiter "l": duplicate name`, "rate_per_second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/circuitbreaker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetter_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent") + "|" + r.Header.Get("Accept")))
	}))
	defer srv.Close()

	g := newGetter(srv.Client(), "BayAreaDashboard/1.0", nil)
	body, err := g.get(context.Background(), srv.URL, map[string]string{"Accept": "application/json"})
	require.NoError(t, err)
	assert.Equal(t, "BayAreaDashboard/1.0|application/json", string(body))
}

func TestGetter_InvalidURL(t *testing.T) {
	g := newGetter(nil, "", nil)
	for _, raw := range []string{"", "ftp://example.com/feed", "://broken"} {
		_, err := g.get(context.Background(), raw, nil)
		assert.True(t, errors.Is(err, entity.ErrConfig), "%q: got %v", raw, err)
	}
}

func TestGetter_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize+100)))
	}))
	defer srv.Close()

	body, err := newGetter(srv.Client(), "", nil).get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Len(t, body, maxBodySize)
}

func TestGetter_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newGetter(srv.Client(), "", circuitbreaker.NewSet(circuitbreaker.DefaultConfig))
	for i := 0; i < 5; i++ {
		_, err := g.get(context.Background(), srv.URL, nil)
		require.True(t, errors.Is(err, entity.ErrUpstream), "call %d: %v", i, err)
	}

	_, err := g.get(context.Background(), srv.URL, nil)
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen), "got %v", err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestGetter_CanceledDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	g := newGetter(srv.Client(), "", circuitbreaker.NewSet(circuitbreaker.DefaultConfig))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := g.get(ctx, srv.URL, nil)
		require.ErrorIs(t, err, context.Canceled)
	}

	body, err := g.get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://api.eia.gov/v2/petroleum", redact("https://api.eia.gov/v2/petroleum?api_key=secret&frequency=weekly"))
	assert.Equal(t, "https://example.com/feed", redact("https://example.com/feed"))
}

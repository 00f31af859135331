package collect

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"bayarea-dashboard/internal/domain/entity"
	"bayarea-dashboard/internal/resilience/limiter"
	"bayarea-dashboard/internal/resilience/timeout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(ids ...string) []entity.RawItem {
	out := make([]entity.RawItem, len(ids))
	for i, id := range ids {
		out[i] = entity.RawItem{ID: id, Title: "title " + id}
	}
	return out
}

func ok(ids ...string) FetchFunc {
	return func(context.Context) ([]entity.RawItem, error) { return items(ids...), nil }
}

func fail(err error) FetchFunc {
	return func(context.Context) ([]entity.RawItem, error) { return nil, err }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCollect_PartialFailure(t *testing.T) {
	c := New(quietLogger())

	sources := []Source{
		{ID: "a", Label: "A", Fetch: ok("a1", "a2")},
		{ID: "b", Label: "B", Fetch: fail(errors.New("503"))},
		{ID: "c", Label: "C", Fetch: ok("c1")},
		{ID: "d", Label: "D", Fetch: fail(errors.New("dns"))},
		{ID: "e", Label: "E", Fetch: ok("e1", "e2", "e3")},
	}

	results := c.Collect(context.Background(), sources)
	require.Len(t, results, 5)

	wantOK := []bool{true, false, true, false, true}
	wantItems := []int{2, 0, 1, 0, 3}
	for i, r := range results {
		assert.Equal(t, sources[i].ID, r.SourceID, "results keep source order")
		assert.Equal(t, sources[i].Label, r.Label)
		assert.Equal(t, wantOK[i], r.OK, r.SourceID)
		assert.Len(t, r.Items, wantItems[i], r.SourceID)
		if !r.OK {
			assert.Error(t, r.Err)
			assert.Nil(t, r.Items)
		}
	}

	assert.Len(t, entity.Flatten(results), 6)
}

func TestCollect_RunsInParallel(t *testing.T) {
	c := New(quietLogger())

	slow := func(context.Context) ([]entity.RawItem, error) {
		time.Sleep(50 * time.Millisecond)
		return items("x"), nil
	}
	sources := make([]Source, 5)
	for i := range sources {
		sources[i] = Source{ID: string(rune('a' + i)), Fetch: slow}
	}

	start := time.Now()
	results := c.Collect(context.Background(), sources)
	elapsed := time.Since(start)

	for _, r := range results {
		assert.True(t, r.OK)
	}
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestCollect_TimeoutThenFallback(t *testing.T) {
	c := New(quietLogger())
	block := make(chan struct{})
	defer close(block)

	hang := func(context.Context) ([]entity.RawItem, error) {
		<-block
		return items("never"), nil
	}

	results := c.Collect(context.Background(), []Source{
		{ID: "slow", Fetch: hang, Fallback: ok("fb1"), Timeout: 20 * time.Millisecond},
	})

	require.Len(t, results, 1)
	r := results[0]
	assert.True(t, r.OK)
	assert.True(t, r.ViaFallback)
	assert.Equal(t, "fb1", r.Items[0].ID)
}

func TestCollect_TimeoutWithoutFallback(t *testing.T) {
	c := New(quietLogger())
	block := make(chan struct{})
	defer close(block)

	results := c.Collect(context.Background(), []Source{
		{ID: "slow", Fetch: func(context.Context) ([]entity.RawItem, error) {
			<-block
			return nil, nil
		}, Timeout: 20 * time.Millisecond},
		{ID: "fast", Fetch: ok("f1")},
	})

	assert.False(t, results[0].OK)
	assert.ErrorIs(t, results[0].Err, timeout.ErrTimeout)
	assert.Equal(t, "timeout", entity.Classify(results[0].Err))
	assert.True(t, results[1].OK)
}

func TestCollect_PanicIsSourceFailure(t *testing.T) {
	c := New(quietLogger())

	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{"unbounded", 0},
		{"bounded", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := c.Collect(context.Background(), []Source{
				{ID: "boom", Timeout: tt.timeout, Fetch: func(context.Context) ([]entity.RawItem, error) {
					panic("bad upstream payload")
				}},
				{ID: "fine", Fetch: ok("1")},
			})

			assert.False(t, results[0].OK)
			assert.ErrorContains(t, results[0].Err, "panicked")
			assert.True(t, results[1].OK)
		})
	}
}

func TestCollect_PanicFallsBack(t *testing.T) {
	c := New(quietLogger())

	results := c.Collect(context.Background(), []Source{
		{ID: "boom", Fetch: func(context.Context) ([]entity.RawItem, error) {
			panic("nil map")
		}, Fallback: ok("backup")},
	})

	assert.True(t, results[0].OK)
	assert.True(t, results[0].ViaFallback)
}

func TestCollect_LimiterGuardsPrimaryOnly(t *testing.T) {
	c := New(quietLogger())
	l := limiter.New("shared", 1)

	var current, peak atomic.Int32
	fetch := func(context.Context) ([]entity.RawItem, error) {
		n := current.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return items("x"), nil
	}

	sources := make([]Source, 4)
	for i := range sources {
		sources[i] = Source{ID: string(rune('a' + i)), Fetch: fetch, Limiter: l}
	}

	results := c.Collect(context.Background(), sources)
	for _, r := range results {
		assert.True(t, r.OK)
	}
	assert.Equal(t, int32(1), peak.Load())
}

func TestCollect_MissingFetchIsConfigError(t *testing.T) {
	c := New(quietLogger())

	results := c.Collect(context.Background(), []Source{{ID: "empty"}})

	assert.False(t, results[0].OK)
	assert.ErrorIs(t, results[0].Err, entity.ErrConfig)
}

func TestCollect_Empty(t *testing.T) {
	assert.Empty(t, New(nil).Collect(context.Background(), nil))
}

func TestCollect_LogsPerSource(t *testing.T) {
	var buf bytes.Buffer
	c := New(slog.New(slog.NewTextHandler(&buf, nil)))

	c.Collect(context.Background(), []Source{
		{ID: "good", Fetch: ok("1")},
		{ID: "bad", Fetch: fail(errors.New("nope"))},
	})

	out := buf.String()
	assert.Contains(t, out, "source fetched")
	assert.Contains(t, out, "source=good")
	assert.Contains(t, out, "source failed")
	assert.Contains(t, out, "source=bad")
}

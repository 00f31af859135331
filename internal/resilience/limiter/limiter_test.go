package limiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_NeverExceedsMax(t *testing.T) {
	l := New("test-max", 3)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				current.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(3), peak.Load(), "ten slow ops should saturate the limiter")
	assert.Equal(t, 0, l.InFlight())
	assert.Equal(t, 0, l.Queued())
}

func TestLimiter_FIFOOrder(t *testing.T) {
	l := New("test-fifo", 1)

	gate := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func(context.Context) error {
			close(holding)
			<-gate
			return nil
		})
	}()
	<-holding

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = l.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				order = append(order, n)
				mu.Unlock()
				return nil
			})
		}(i)
		// Wait until the waiter is queued before enqueuing the next one.
		require.Eventually(t, func() bool { return l.Queued() == i+1 }, time.Second, time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	close(gate)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLimiter_FailureReleasesSlot(t *testing.T) {
	l := New("test-release", 1)
	boom := errors.New("boom")

	err := l.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	done := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after failure")
	}
}

func TestLimiter_PanicReleasesSlot(t *testing.T) {
	l := New("test-panic", 1)

	assert.Panics(t, func() {
		_ = l.Do(context.Background(), func(context.Context) error { panic("kaboom") })
	})
	assert.Equal(t, 0, l.InFlight())

	err := l.Do(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestLimiter_ContextCancelledWhileQueued(t *testing.T) {
	l := New("test-cancel", 1)

	gate := make(chan struct{})
	defer close(gate)
	holding := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func(context.Context) error {
			close(holding)
			<-gate
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	err := l.Do(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran.Load())
	assert.Equal(t, 0, l.Queued())
}

func TestLimiter_WithRatePacesAdmissions(t *testing.T) {
	l := New("test-rate", 5, WithRate(20, 1))

	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Do(context.Background(), func(context.Context) error { return nil }))
	}
	// Burst of one then three waits of ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_NilPassesThrough(t *testing.T) {
	var l *Limiter
	v, err := Call(context.Background(), l, func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCall_ReturnsValueAndError(t *testing.T) {
	l := New("test-call", 2)

	v, err := Call(context.Background(), l, func(context.Context) (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	boom := errors.New("boom")
	_, err = Call(context.Background(), l, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestNew_ClampsMax(t *testing.T) {
	assert.Equal(t, 1, New("zero", 0).Max())
	assert.Equal(t, 1, New("neg", -4).Max())
	assert.Equal(t, 4, New("four", 4).Max())
	assert.Equal(t, "four", New("four", 4).Name())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Register("reddit", 2)
	b := r.Register("hn", 3, WithRate(5, 2))

	assert.Same(t, a, r.Get("reddit"))
	assert.Same(t, b, r.Get("hn"))
	assert.Nil(t, r.Get("missing"))
	assert.Nil(t, r.Get(""))
	assert.Equal(t, []string{"hn", "reddit"}, r.Names())

	var nilReg *Registry
	assert.Nil(t, nilReg.Get("reddit"))
}

package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_AdmitsUpToMax(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(3), WithWindow(time.Minute), WithClock(clock.Now))

	assert.Equal(t, time.Duration(0), l.TimeUntilReset())
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "call %d", i)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, time.Minute, l.TimeUntilReset())
}

func TestLimiter_SlidingWindow(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(2), WithWindow(time.Minute), WithClock(clock.Now))

	require.True(t, l.Allow())
	clock.Advance(30 * time.Second)
	require.True(t, l.Allow())
	require.False(t, l.Allow())
	assert.Equal(t, 30*time.Second, l.TimeUntilReset())

	// The first call leaves the window exactly one window after it was made.
	clock.Advance(30 * time.Second)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, 30*time.Second, l.TimeUntilReset())
}

func TestLimiter_DeniedCallsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(1), WithWindow(time.Minute), WithClock(clock.Now))

	require.True(t, l.Allow())
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		require.False(t, l.Allow())
	}
	clock.Advance(10 * time.Second)
	assert.True(t, l.Allow())
}

func TestLimiter_TimeUntilResetNeverNegative(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(1), WithWindow(time.Minute), WithClock(clock.Now))
	require.True(t, l.Allow())
	clock.Advance(5 * time.Minute)
	assert.Equal(t, time.Duration(0), l.TimeUntilReset())
}

func TestLimiter_CheckMessage(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(1), WithWindow(5*time.Minute), WithClock(clock.Now))

	require.NoError(t, l.Check())
	clock.Advance(61 * time.Second)
	err := l.Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.Equal(t, "Rate limit exceeded. Please try again in 4 minute(s).", err.Error())

	l.Reset()
	assert.NoError(t, l.Check())
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(WithWindow(-1), WithMaxRequests(0), WithClock(nil))
	assert.Equal(t, DefaultWindow, l.window)
	assert.Equal(t, DefaultMaxRequests, l.maxRequests)
	assert.NotNil(t, l.now)
}

func TestLimiter_ConcurrentCallersNeverOverAdmit(t *testing.T) {
	clock := newFakeClock()
	l := New(WithMaxRequests(10), WithClock(clock.Now))

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), admitted.Load())
}

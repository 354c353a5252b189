// Package ratelimit implements sliding-window call admission shared by every
// entry point of a process.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 100
)

// Limiter admits at most maxRequests calls per rolling window. Construct one
// per process and share it; all methods are safe for concurrent use.
type Limiter struct {
	window      time.Duration
	maxRequests int
	now         func() time.Time

	mu         sync.Mutex
	timestamps []time.Time
}

type Option func(*Limiter)

func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

func WithMaxRequests(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxRequests = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		window:      DefaultWindow,
		maxRequests: DefaultMaxRequests,
		now:         time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow prunes expired timestamps and admits the call when fewer than
// maxRequests remain in the window. A denied call is not recorded.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.timestamps) >= l.maxRequests {
		return false
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// TimeUntilReset returns how long until the oldest recorded call leaves the
// window, or 0 when nothing is recorded.
func (l *Limiter) TimeUntilReset() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.timestamps) == 0 {
		return 0
	}
	remaining := l.timestamps[0].Add(l.window).Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forgets every recorded call.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.timestamps = nil
	l.mu.Unlock()
}

// Check wraps Allow and returns a RateLimitError when the call is denied.
func (l *Limiter) Check() error {
	if l.Allow() {
		return nil
	}
	minutes := int(math.Ceil(l.TimeUntilReset().Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return common.NewRateLimitError(fmt.Sprintf("Rate limit exceeded. Please try again in %d minute(s).", minutes))
}

// timestamps are appended in clock order, so expired ones form a prefix.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

// Package ratelimit guards the publish path with a fixed-window counter
// per client origin. The guard is deliberately coarse: all counters are
// discarded together at each window boundary, so a burst straddling the
// boundary can briefly exceed the threshold. That is acceptable for
// abuse dampening, which is all this is for.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a memory-only fixed-window counter. The zero value is not
// usable; construct with New.
type Limiter struct {
	mu          sync.Mutex
	counts      map[string]int
	windowStart time.Time

	window time.Duration
	max    int
	now    func() time.Time
}

// New creates a limiter allowing max requests per origin within each
// window.
func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		counts: make(map[string]int),
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow records one request from origin and reports whether it is within
// the current window's allowance.
func (l *Limiter) Allow(origin string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowStart) >= l.window {
		// Window boundary: drop the whole table
		l.counts = make(map[string]int)
		l.windowStart = now
	}

	l.counts[origin]++
	return l.counts[origin] <= l.max
}

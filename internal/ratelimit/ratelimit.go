// Package ratelimit gates entry to scan and discovery operations with a
// per-owner fixed window. Exceeding the limit rejects the call immediately
// with a retry-after hint; nothing is queued.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitError is returned when an owner exceeds the window limit. No
// partial work is performed.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Key, e.RetryAfter.Round(time.Second))
}

type window struct {
	start time.Time
	count int
}

// Limiter is an in-memory fixed-window counter keyed by owner+operation.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
}

// New creates a Limiter allowing limit operations per period.
func New(limit int, period time.Duration) *Limiter {
	if limit <= 0 {
		limit = 5
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one operation under key. It returns a RateLimitError when
// the current window is full.
func (l *Limiter) Allow(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		l.maybeSweep(now)
		return nil
	}

	if w.count >= l.limit {
		return &RateLimitError{Key: key, RetryAfter: l.period - now.Sub(w.start)}
	}
	w.count++
	return nil
}

// Remaining reports how many operations are left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().Sub(w.start) >= l.period {
		return l.limit
	}
	return l.limit - w.count
}

// maybeSweep drops stale windows once the map grows past a soft cap.
// Called with the lock held.
func (l *Limiter) maybeSweep(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
		}
	}
}

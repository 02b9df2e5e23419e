// Package ratelimit throttles abusive callers: per-key token buckets for the
// emergency form and the send-email API, plus a two-axis limiter for login.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter allows roughly limit events per window for each key. A key starts
// with a full bucket and refills one token every window/limit.
type Limiter struct {
	limit  int
	window time.Duration
	every  rate.Limit

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func New(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow spends one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	b := l.buckets[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.every, l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Remaining is the number of whole tokens key could spend right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		return l.limit
	}
	return int(math.Max(0, math.Floor(b.lim.TokensAt(l.now()))))
}

// Reset forgets key so its next request starts with a full bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// RetryAfter is the refill interval rounded up to whole seconds.
func (l *Limiter) RetryAfter() int {
	per := l.window / time.Duration(l.limit)
	return int(math.Max(1, math.Ceil(per.Seconds())))
}

// sweep drops keys idle for a full window; their buckets have refilled, so
// forgetting them changes nothing. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, k)
		}
	}
}

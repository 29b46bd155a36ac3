// Package ratelimit enforces a minimum interval between actions that share a key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is the non-blocking check used by request handlers.
type RateLimiter interface {
	Allow(key string) bool
}

// Limiter keeps one token bucket per key, each refilling one token per minInterval.
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]*rate.Limiter
	minInterval time.Duration
}

// New creates a limiter. A zero interval allows everything.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		hosts:       make(map[string]*rate.Limiter),
		minInterval: minInterval,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[key]
	if !ok {
		limit := rate.Inf
		if l.minInterval > 0 {
			limit = rate.Every(l.minInterval)
		}
		lim = rate.NewLimiter(limit, 1)
		l.hosts[key] = lim
	}
	return lim
}

// Allow reports whether an action for key may happen now. A denied call
// does not push back the next allowed time.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until an action for key is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Reset forgets the history for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, key)
}

// ResetAll forgets every key.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts = make(map[string]*rate.Limiter)
}

var _ RateLimiter = (*Limiter)(nil)

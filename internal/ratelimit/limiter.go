// Package ratelimit counts events per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	PhonePrefix = "rate_limit:phone:"
	IPPrefix    = "rate_limit:ip:"
)

// Limiter reports whether one more event for key still fits in limit
// events per window. Every call counts, allowed or not.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-process fallback used when no redis is
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if limit <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
		l.sweep(now)
	}
	b.count++
	return b.count <= limit, nil
}

// sweep drops expired buckets so abandoned keys do not pile up.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

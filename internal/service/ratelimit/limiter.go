package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket is an in-process limiter holding one bucket per key.
type TokenBucket struct {
	mu         sync.Mutex
	m          map[string]*bucket
	capacity   float64
	refillRate float64 // tokens per second
	now        func() time.Time
}

// NewTokenBucket allows bursts of capacity requests, refilled evenly so that
// capacity tokens return over window.
func NewTokenBucket(capacity int, window time.Duration) *TokenBucket {
	return &TokenBucket{
		m:          make(map[string]*bucket),
		capacity:   float64(capacity),
		refillRate: float64(capacity) / window.Seconds(),
		now:        time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	// refill
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refillRate
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"AstroTransits/pkg/cache"
)

// FixedWindow counts requests per key in windows backed by a cache.Counter,
// so several instances sharing Redis share one budget.
type FixedWindow struct {
	counter cache.Counter
	limit   int64
	window  time.Duration
	prefix  string
}

func NewFixedWindow(counter cache.Counter, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		prefix:  "ratelimit",
	}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.counter.Increment(ctx, cache.GenerateKey(l.prefix, key), l.window)
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return n <= l.limit, nil
}

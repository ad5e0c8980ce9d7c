package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Counter defines windowed counter operations shared by the memory and Redis
// backends.
type Counter interface {
	// Increment adds one to key and returns the new value. The first increment
	// of a key starts its window, which expires after ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL returns the time left in the key's window, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

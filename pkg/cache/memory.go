package cache

import (
	"context"
	"sync"
	"time"
)

type counterItem struct {
	value    int64
	expireAt time.Time
}

func (i *counterItem) expired(now time.Time) bool {
	return !now.Before(i.expireAt)
}

// MemoryCache implements Counter in process memory.
type MemoryCache struct {
	data    map[string]*counterItem
	mutex   sync.Mutex
	maxSize int
	now     func() time.Time

	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMemoryCache creates an in-memory counter store.
func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	cfg = cfg.withDefaults()
	mc := &MemoryCache{
		data:          make(map[string]*counterItem),
		maxSize:       cfg.MaxKeys,
		now:           time.Now,
		cleanupTicker: time.NewTicker(cfg.Sweep),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, ok := mc.data[key]
	if !ok || item.expired(now) {
		if !ok && len(mc.data) >= mc.maxSize {
			mc.evictLocked(now)
		}
		item = &counterItem{expireAt: now.Add(ttl)}
		mc.data[key] = item
	}
	item.value++
	return item.value, nil
}

func (mc *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, ok := mc.data[key]
	if !ok || item.expired(now) {
		return 0, ErrCacheMiss
	}
	return item.expireAt.Sub(now), nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

// Len returns the number of tracked keys, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

// evictLocked drops expired keys, or the key closest to expiry when none has
// expired yet.
func (mc *MemoryCache) evictLocked(now time.Time) {
	var (
		soonestKey string
		soonest    time.Time
	)
	removed := false
	for key, item := range mc.data {
		if item.expired(now) {
			delete(mc.data, key)
			removed = true
			continue
		}
		if soonestKey == "" || item.expireAt.Before(soonest) {
			soonestKey, soonest = key, item.expireAt
		}
	}
	if !removed && soonestKey != "" {
		delete(mc.data, soonestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
			mc.mutex.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, key)
				}
			}
			mc.mutex.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}

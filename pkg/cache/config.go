package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is the connection and pool setup of a RedisCache. Zero fields
// fall back to DefaultRedisConfig.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	// Prefix namespaces every counter key, so several deployments can share
	// one Redis database.
	Prefix string
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
		Prefix:       "astrotransits",
	}
}

func (c RedisConfig) withDefaults() RedisConfig {
	d := DefaultRedisConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.PoolSize <= 0 {
		c.PoolSize = d.PoolSize
	}
	if c.MinIdleConns < 0 {
		c.MinIdleConns = 0
	}
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = d.PoolTimeout
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	return c
}

func (c RedisConfig) clientOptions() *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		PoolTimeout:  c.PoolTimeout,
	}
}

// MemoryConfig bounds the in-process counter store.
type MemoryConfig struct {
	// MaxKeys caps the tracked keys; the key nearest expiry is evicted first.
	MaxKeys int
	// Sweep is how often expired keys are dropped in the background.
	Sweep time.Duration
}

func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.MaxKeys <= 0 {
		c.MaxKeys = 10000
	}
	if c.Sweep <= 0 {
		c.Sweep = time.Minute
	}
	return c
}

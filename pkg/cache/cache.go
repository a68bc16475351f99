// Package cache is the small read-through cache used for dashboard data that is
// expensive to fetch from the backend and changes rarely (blog stats, the job
// list behind the applicant filter).
//
// Two implementations share the Cache interface:
//   - Memory: per-process, built on the generic TTLCache
//   - Redis: shared between console instances (REDIS_ADDR set)
//
// Values are stored JSON-encoded, so callers pass any JSON-able value to Set and
// a pointer to Get, the same way json.Unmarshal is used.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("key not found in cache")
	ErrClosed   = errors.New("cache is closed")
)

// Cache is a JSON value cache with per-entry TTL.
type Cache interface {
	// Get decodes the value stored under key into dst. ErrNotFound on miss.
	Get(ctx context.Context, key string, dst any) error
	// Set stores value under key. ttl <= 0 means the implementation default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Options configures a cache.
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultOptions returns options suitable for the in-memory cache.
func DefaultOptions() Options {
	return Options{
		DefaultTTL:      30 * time.Second,
		CleanupInterval: time.Minute,
		KeyPrefix:       "blogadmin:",
	}
}

// New picks the Redis implementation when opts.RedisAddr is set, Memory otherwise.
func New(opts Options) Cache {
	if opts.RedisAddr != "" {
		return NewRedis(opts)
	}
	return NewMemory(opts)
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Memory is the in-process Cache implementation.
type Memory struct {
	entries *TTLCache[string, []byte]
	closed  atomic.Bool
}

// NewMemory creates an in-memory cache.
func NewMemory(opts Options) *Memory {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultOptions().DefaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultOptions().CleanupInterval
	}
	return &Memory{
		entries: NewTTLCache[string, []byte](opts.DefaultTTL, opts.CleanupInterval),
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) error {
	if m.closed.Load() {
		return ErrClosed
	}
	raw, ok := m.entries.Get(key)
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode cached value %q: %w", key, err)
	}
	return nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value %q: %w", key, err)
	}
	m.entries.SetTTL(key, raw, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.entries.Delete(key)
	}
	return nil
}

func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.entries.Close()
	}
	return nil
}

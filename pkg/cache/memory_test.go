package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stats struct {
	TotalPosts int `json:"totalPosts"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(DefaultOptions())
	defer c.Close()

	if err := c.Set(ctx, "blog:stats", stats{TotalPosts: 7}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got stats
	if err := c.Get(ctx, "blog:stats", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TotalPosts != 7 {
		t.Fatalf("TotalPosts = %d, want 7", got.TotalPosts)
	}
}

func TestMemoryMissAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(DefaultOptions())
	defer c.Close()

	var got stats
	if err := c.Get(ctx, "nope", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on miss = %v, want ErrNotFound", err)
	}

	_ = c.Set(ctx, "a", stats{TotalPosts: 1}, 0)
	_ = c.Set(ctx, "b", stats{TotalPosts: 2}, 0)
	if err := c.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Get(ctx, "a", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("a still cached: %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(Options{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	_ = c.Set(ctx, "short", stats{TotalPosts: 1}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	var got stats
	if err := c.Get(ctx, "short", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry returned: %v", err)
	}
}

func TestMemoryClosed(t *testing.T) {
	c := NewMemory(DefaultOptions())
	_ = c.Close()
	_ = c.Close()

	if err := c.Set(context.Background(), "k", 1, 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close = %v, want ErrClosed", err)
	}
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFromClient(client), mr
}

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		key      string
		expected string
	}{
		{"test", "socialfeed:test"},
		{"following:abc", "socialfeed:following:abc"},
		{"", "socialfeed:"},
	}

	for _, tt := range tests {
		if got := cache.namespaceKey(tt.key); got != tt.expected {
			t.Errorf("namespaceKey(%q) = %v, want %v", tt.key, got, tt.expected)
		}
	}
}

func TestCache_JSONRoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.SetJSON(ctx, "ids", []string{"a", "b"}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if !mr.Exists("socialfeed:ids") {
		t.Fatalf("Expected namespaced key to be stored")
	}

	var got []string
	if err := c.GetJSON(ctx, "ids", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Unexpected cached value: %v", got)
	}

	mr.FastForward(2 * time.Minute)
	if err := c.GetJSON(ctx, "ids", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss after expiry, got %v", err)
	}
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "k1", "v", 0)
	c.Set(ctx, "k2", "v", 0)

	if err := c.Delete(ctx, "k1", "k2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k1"); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss for k1, got %v", err)
	}
	if _, err := c.Get(ctx, "k2"); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss for k2, got %v", err)
	}
}

func TestCache_Counter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if n, err := c.Counter(ctx, "gen"); err != nil || n != 0 {
		t.Errorf("Expected missing counter to read 0, got %d (%v)", n, err)
	}
	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "gen")
		if err != nil || n != want {
			t.Fatalf("Incr = %d, %v; want %d", n, err, want)
		}
	}
	if n, err := c.Counter(ctx, "gen"); err != nil || n != 3 {
		t.Errorf("Expected counter 3, got %d (%v)", n, err)
	}
}

func TestCache_Disabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Expected ErrCacheDisabled, got %v", err)
	}
	if err := c.SetJSON(ctx, "k", 1, 0); !errors.Is(err, ErrCacheDisabled) {
		t.Errorf("Expected ErrCacheDisabled, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on disabled cache should be nil, got %v", err)
	}
}

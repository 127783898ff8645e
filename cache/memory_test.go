package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/rampart"
)

func user(id string) *rampart.Identity {
	return rampart.Authenticated(rampart.Attributes{UserID: id, Username: id, IsActive: true})
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	if _, ok := c.Get(ctx, "tok"); ok {
		t.Fatal("expected cache miss")
	}

	c.Set(ctx, "tok", user("u1"))
	got, ok := c.Get(ctx, "tok")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.UserID() != "u1" {
		t.Fatalf("expected u1, got %s", got.UserID())
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(WithTTL(time.Second), WithClock(func() time.Time { return now }))

	c.Set(ctx, "tok", user("u1"))
	now = now.Add(2 * time.Second)

	if _, ok := c.Get(ctx, "tok"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry should be dropped on read")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "a1", user("alice"))
	c.Set(ctx, "a2", user("alice"))
	c.Set(ctx, "b1", user("bob"))

	c.InvalidateUser(ctx, "alice")
	if _, ok := c.Get(ctx, "a1"); ok {
		t.Fatal("a1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "a2"); ok {
		t.Fatal("a2 should be invalidated")
	}
	if _, ok := c.Get(ctx, "b1"); !ok {
		t.Fatal("b1 should still be cached")
	}

	c.InvalidateToken(ctx, "b1")
	if _, ok := c.Get(ctx, "b1"); ok {
		t.Fatal("b1 should be invalidated")
	}

	c.Set(ctx, "c1", user("carol"))
	c.InvalidateAll(ctx)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		c.Set(ctx, string(rune('a'+i)), user("u1"))
	}

	if size := c.Len(); size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}

func TestMemoryCacheCappedAtSessionExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	ident := rampart.Authenticated(rampart.Attributes{
		UserID:           "u1",
		Username:         "u1",
		IsActive:         true,
		SessionExpiresAt: now.Add(10 * time.Second),
	})
	c.Set(ctx, "tok", ident)

	now = now.Add(9 * time.Second)
	if _, ok := c.Get(ctx, "tok"); !ok {
		t.Fatal("expected cache hit before the session ends")
	}
	now = now.Add(time.Second)
	if _, ok := c.Get(ctx, "tok"); ok {
		t.Fatal("entry must not outlive its session")
	}
}

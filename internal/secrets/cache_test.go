package secrets

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(ttl)
	cache.now = clock.Now
	return cache, clock
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	cache, clock := newTestCache(time.Minute)

	if _, ok := cache.Get(); ok {
		t.Fatalf("empty cache reported a value")
	}
	cache.Set("abc")
	if got, ok := cache.Get(); !ok || got != "abc" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}

	clock.now = clock.now.Add(59 * time.Second)
	if _, ok := cache.Get(); !ok {
		t.Fatalf("value expired early")
	}
	clock.now = clock.now.Add(time.Second)
	if _, ok := cache.Get(); ok {
		t.Fatalf("value still fresh after ttl")
	}
}

func TestCacheGetOrFetch(t *testing.T) {
	cache, clock := newTestCache(time.Minute)
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.GetOrFetch(context.Background(), fetch)
		if err != nil || got != "value" {
			t.Fatalf("GetOrFetch() = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := cache.GetOrFetch(context.Background(), fetch); err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("fetch called %d times after expiry, want 2", calls)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	cache, _ := newTestCache(time.Minute)
	boom := errors.New("boom")

	_, err := cache.GetOrFetch(context.Background(), func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrFetch() error = %v, want boom", err)
	}
	if _, ok := cache.Get(); ok {
		t.Fatalf("failed fetch was cached")
	}
}

func TestNewCacheDefaultsTTL(t *testing.T) {
	if got := NewCache(0).ttl; got != DefaultTTL {
		t.Fatalf("ttl = %v, want %v", got, DefaultTTL)
	}
}

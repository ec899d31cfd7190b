package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryLimiter_Window(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()
	key := PhonePrefix + "+79990001234"

	for i := 1; i <= 3; i++ {
		ok, err := l.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("fourth call allowed")
	}
	if ok, _ := l.Allow(ctx, IPPrefix+"10.0.0.1", 3, time.Minute); !ok {
		t.Fatal("other key throttled")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, key, 3, time.Minute); !ok {
		t.Fatal("new window still throttled")
	}
}

func TestMemoryLimiter_Unlimited(t *testing.T) {
	l := NewMemoryLimiter()
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow(context.Background(), "k", 0, time.Minute); !ok {
			t.Fatal("limit 0 must not throttle")
		}
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1100; i++ {
		_, _ = l.Allow(ctx, uuid.NewString(), 1, time.Second)
	}
	now = now.Add(time.Hour)
	_, _ = l.Allow(ctx, "fresh", 1, time.Second)
	if n := len(l.buckets); n != 1 {
		t.Errorf("buckets after sweep = %d, want 1", n)
	}
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer client.Close()

	key := PhonePrefix + uuid.NewString()
	defer client.Del(ctx, key)

	l := NewRedisLimiter(client, nil)
	for i := 1; i <= 2; i++ {
		if ok, err := l.Allow(ctx, key, 2, time.Minute); err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, key, 2, time.Minute); ok {
		t.Fatal("third call allowed")
	}
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v err=%v", ttl, err)
	}
}

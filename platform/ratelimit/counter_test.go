package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryCounterIncrementsWithinWindow(t *testing.T) {
	counter := NewMemoryCounter(time.Minute)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := counter.Increment(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
}

func TestMemoryCounterTracksKeysIndependently(t *testing.T) {
	counter := NewMemoryCounter(time.Minute)
	ctx := context.Background()

	if _, err := counter.Increment(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, err := counter.Increment(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected independent key to start at 1, got %d", got)
	}
}

func TestMemoryCounterResetsAfterWindow(t *testing.T) {
	counter := NewMemoryCounter(time.Minute)
	ctx := context.Background()

	now := time.Now()
	counter.now = func() time.Time { return now }

	if _, err := counter.Increment(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := counter.Increment(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	counter.now = func() time.Time { return now.Add(2 * time.Minute) }

	got, err := counter.Increment(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected count to reset to 1 after window, got %d", got)
	}
}

func TestRedisCounterIncrementsAndExpires(t *testing.T) {
	srv := miniredis.RunT(t)

	counter, err := NewRedisCounter("redis://"+srv.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("new redis counter: %v", err)
	}
	defer counter.Close()

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := counter.Increment(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}

	srv.FastForward(2 * time.Minute)

	got, err := counter.Increment(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("increment after expiry: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected count to reset to 1 after TTL, got %d", got)
	}
}

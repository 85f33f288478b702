package fetch

import (
	"context"
	"testing"
	"time"
)

// x/time/rate computes token arrival in float seconds.
const limiterSlack = 5 * time.Millisecond

func TestRateLimiter_FirstWaitDoesNotBlock(t *testing.T) {
	limiter := NewRateLimiter(time.Second)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected first wait to return immediately, took %v", elapsed)
	}
}

func TestRateLimiter_SpacesConsecutiveWaits(t *testing.T) {
	interval := 100 * time.Millisecond
	limiter := NewRateLimiter(interval)

	var returns []time.Time
	for i := 0; i < 4; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		returns = append(returns, time.Now())
	}

	for i := 1; i < len(returns); i++ {
		if gap := returns[i].Sub(returns[i-1]); gap < interval-limiterSlack {
			t.Errorf("Expected gap of at least %v between waits %d and %d, got %v", interval, i-1, i, gap)
		}
	}
}

func TestRateLimiter_ZeroIntervalNeverBlocks(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected no blocking, took %v", elapsed)
	}
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Errorf("Expected error for cancelled context")
	}
}

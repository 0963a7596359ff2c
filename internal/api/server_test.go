package api

import (
	"testing"
	"time"
)

// ============================================================================
// RATE LIMITER TESTS
// ============================================================================

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("1.2.3.4") {
			t.Fatalf("Expected request %d allowed", i+1)
		}
	}
	if limiter.Allow("1.2.3.4") {
		t.Error("Expected the fourth request blocked")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	if !limiter.Allow("a") {
		t.Fatal("Expected first key allowed")
	}
	if !limiter.Allow("b") {
		t.Error("Expected second key unaffected by the first")
	}
	if limiter.Allow("a") {
		t.Error("Expected first key exhausted")
	}
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewRateLimiter(1, 50*time.Millisecond)

	if !limiter.Allow("x") {
		t.Fatal("Expected first request allowed")
	}
	if limiter.Allow("x") {
		t.Fatal("Expected second request blocked inside the window")
	}
	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("x") {
		t.Error("Expected the window to reset")
	}
}

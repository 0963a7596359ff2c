package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// ============================================================================
// COOLDOWN CACHE TESTS
// ============================================================================

func TestCooldownCache_DisabledIsNoOp(t *testing.T) {
	c := NewCooldownCache(config.RedisConfig{Enabled: false}, time.Hour, zerolog.Nop())

	ctx := context.Background()
	if c.InCooldown(ctx, "SPY", market.Long) {
		t.Error("Expected no cooldown when disabled")
	}
	c.MarkAlerted(ctx, "SPY", market.Long)
	if c.InCooldown(ctx, "SPY", market.Long) {
		t.Error("Expected marking to be a no-op when disabled")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
}

func TestCooldownCache_UnreachableRedisDegrades(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Address: "127.0.0.1:1"}
	c := NewCooldownCache(cfg, time.Hour, zerolog.Nop())

	if c.InCooldown(context.Background(), "SPY", market.Long) {
		t.Error("Expected degraded cache to never report cooldown")
	}
}

func TestCooldownKey(t *testing.T) {
	if got := cooldownKey("NVDA", market.Short); got != "cooldown:NVDA:SHORT" {
		t.Errorf("Unexpected key %q", got)
	}
}

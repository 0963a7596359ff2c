// Package cache provides Redis-backed alert cooldown tracking with
// graceful degradation: when Redis is down or disabled the scanner keeps
// working, it just re-alerts sooner.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// CooldownCache suppresses repeat alerts for the same symbol and direction
// inside a TTL window.
type CooldownCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
	log     zerolog.Logger
}

// NewCooldownCache connects to Redis. A disabled config or a failed initial
// ping yields a no-op cache, not an error.
func NewCooldownCache(cfg config.RedisConfig, ttl time.Duration, logger zerolog.Logger) *CooldownCache {
	log := logger.With().Str("component", "cooldown_cache").Logger()

	if !cfg.Enabled {
		log.Info().Msg("redis disabled, alert cooldown is off")
		return &CooldownCache{enabled: false, log: log}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("address", cfg.Address).Msg("redis unreachable, alert cooldown degraded to off")
		return &CooldownCache{enabled: false, log: log}
	}

	log.Info().Str("address", cfg.Address).Msg("redis connected")
	return &CooldownCache{client: client, ttl: ttl, enabled: true, log: log}
}

// InCooldown reports whether an alert for this symbol and direction fired
// within the TTL window. Redis errors degrade to false so a flaky cache
// never blocks alerts.
func (c *CooldownCache) InCooldown(ctx context.Context, symbol string, direction market.Direction) bool {
	if !c.enabled {
		return false
	}
	n, err := c.client.Exists(ctx, cooldownKey(symbol, direction)).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("cooldown lookup failed")
		return false
	}
	return n > 0
}

// MarkAlerted starts the cooldown window for a symbol and direction.
func (c *CooldownCache) MarkAlerted(ctx context.Context, symbol string, direction market.Direction) {
	if !c.enabled {
		return
	}
	if err := c.client.Set(ctx, cooldownKey(symbol, direction), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("cooldown mark failed")
	}
}

// Close releases the Redis connection.
func (c *CooldownCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func cooldownKey(symbol string, direction market.Direction) string {
	return fmt.Sprintf("cooldown:%s:%s", symbol, direction)
}

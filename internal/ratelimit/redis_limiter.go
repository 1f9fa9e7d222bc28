package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-backend/pkg/logger"
)

// RedisLimiter is a fixed-window counter shared across service
// instances. INCR is atomic, so the check-then-increment race of a
// process-local counter cannot occur, and every instance sees the same
// window state.
type RedisLimiter struct {
	config Config
	client *redis.Client
	logger *logger.Logger
}

// NewRedisLimiter creates a Redis-backed limiter from a redis:// URL.
func NewRedisLimiter(config Config, redisURL string, log *logger.Logger) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("Redis rate limiter initialized",
		"limit", config.Limit,
		"window", config.Window.String())

	return &RedisLimiter{
		config: config,
		client: client,
		logger: log.WithComponent("redis_limiter"),
	}, nil
}

// Allow increments the window counter for key and tests it against the
// limit. The window TTL is set when the counter is created. Store errors
// fail open: rate limiting is protective, not load-bearing.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	counterKey := "ratelimit:orders:" + key

	count, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		r.logger.Error("Rate limit increment failed, allowing request", "key", key, "error", err)
		return true, 0
	}

	if count == 1 {
		if err := r.client.Expire(ctx, counterKey, r.config.Window).Err(); err != nil {
			r.logger.Error("Failed to set rate limit window TTL", "key", key, "error", err)
		}
	}

	if count > int64(r.config.Limit) {
		retryAfter := r.config.Window
		if ttl, err := r.client.TTL(ctx, counterKey).Result(); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		r.logger.Warn("Rate limit exceeded",
			"key", key,
			"count", count,
			"limit", r.config.Limit,
			"retry_after", retryAfter.String())
		return false, retryAfter
	}

	return true, 0
}

// HealthCheck verifies Redis connectivity.
func (r *RedisLimiter) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}

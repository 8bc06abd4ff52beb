package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
)

// RateLimiter bounds bill payments per user and service over a rolling
// window. Failing open would let a Redis outage lift spending limits, so
// a limiter error denies the payment.
type RateLimiter interface {
	Allow(ctx context.Context, userID, serviceID uuid.UUID) error
}

// RedisRateLimiter counts payments in Redis with a windowed key.
type RedisRateLimiter struct {
	logger *slog.Logger
	client redis.Cmdable
	max    int
	window time.Duration
}

// NewRedisRateLimiter creates a Redis-backed payment rate limiter
func NewRedisRateLimiter(logger *slog.Logger, client redis.Cmdable, cfg *config.RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		logger: logger,
		client: client,
		max:    cfg.MaxPerWindow,
		window: cfg.Window,
	}
}

// Allow increments the caller's window counter and rejects once the
// configured maximum is exceeded. The counter expires with the window, so
// an idle user+service pair costs nothing.
func (l *RedisRateLimiter) Allow(ctx context.Context, userID, serviceID uuid.UUID) error {
	key := fmt.Sprintf("ratelimit:billpay:%s:%s", userID, serviceID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Error("Rate limit counter unavailable", "key", key, "error", err)
		return shared.NewInternal("rate limit check failed", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Error("Failed to set rate limit window", "key", key, "error", err)
			return shared.NewInternal("rate limit check failed", err)
		}
	}

	if count > int64(l.max) {
		l.logger.Warn("Payment rate limit exceeded",
			"user_id", userID.String(),
			"service_id", serviceID.String(),
			"count", count,
			"max", l.max,
		)
		return shared.NewRateLimited("payment limit of %d per %s exceeded", l.max, l.window)
	}

	return nil
}

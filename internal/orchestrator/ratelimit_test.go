package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RedisRateLimiter, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	limiter := NewRedisRateLimiter(testLogger(), db, &config.RateLimitConfig{
		MaxPerWindow: max,
		Window:       window,
	})
	return limiter, mock
}

func limiterKey(userID, serviceID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:billpay:%s:%s", userID, serviceID)
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	serviceID := uuid.New()
	key := limiterKey(userID, serviceID)

	t.Run("first payment opens the window", func(t *testing.T) {
		limiter, mock := newTestLimiter(t, 5, time.Minute)
		mock.ExpectIncr(key).SetVal(1)
		mock.ExpectExpire(key, time.Minute).SetVal(true)

		require.NoError(t, limiter.Allow(ctx, userID, serviceID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("within limit", func(t *testing.T) {
		limiter, mock := newTestLimiter(t, 5, time.Minute)
		mock.ExpectIncr(key).SetVal(5)

		require.NoError(t, limiter.Allow(ctx, userID, serviceID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("over limit", func(t *testing.T) {
		limiter, mock := newTestLimiter(t, 5, time.Minute)
		mock.ExpectIncr(key).SetVal(6)

		err := limiter.Allow(ctx, userID, serviceID)
		require.Error(t, err)
		assert.Equal(t, shared.CodeRateLimited, shared.CodeOf(err))
	})

	t.Run("redis outage denies", func(t *testing.T) {
		limiter, mock := newTestLimiter(t, 5, time.Minute)
		mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

		err := limiter.Allow(ctx, userID, serviceID)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInternal, shared.CodeOf(err))
	})

	t.Run("expire failure denies", func(t *testing.T) {
		limiter, mock := newTestLimiter(t, 5, time.Minute)
		mock.ExpectIncr(key).SetVal(1)
		mock.ExpectExpire(key, time.Minute).SetErr(errors.New("connection reset"))

		err := limiter.Allow(ctx, userID, serviceID)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInternal, shared.CodeOf(err))
	})
}

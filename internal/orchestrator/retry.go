package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
)

// retryRead wraps a read-style provider call with a bounded linear-backoff
// retry on provider failures. The payment invocation must never go through
// this helper: re-invoking it could double-charge.
func retryRead[T any](ctx context.Context, logger *slog.Logger, attempts int, backoff time.Duration, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, &shared.Error{Code: shared.CodeProviderDeclined}) {
			return zero, err
		}

		logger.Warn("Provider read call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"error", err,
		)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
	}

	return zero, lastErr
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/sentex/internal/clowder"
	"github.com/dgallion1/sentex/internal/segment"
)

// backoffBase is the first retry delay; tests shrink it.
var backoffBase = time.Second

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var hostErr *clowder.RetryableError
	var segErr *segment.RetryableError
	return errors.As(err, &hostErr) || errors.As(err, &segErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), 5)
	base := time.Duration(1<<uint(attempt)) * backoffBase
	if limit := 30 * backoffBase; base > limit {
		base = limit
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

const MaxRetries = 3

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// maxRetries retries have been spent.
func withRetry(ctx context.Context, log *slog.Logger, op string, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt >= maxRetries {
			return err
		}
		log.Warn("retryable error", "op", op, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
	}
}

package bridge

import (
	"context"
	"time"
)

// RetryPolicy configures exponential backoff around a single bridge call.
// Only wrap idempotent reads: a mutating command sent twice is applied twice.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // delay before the first retry, doubled each time

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns three retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Retry runs op up to MaxRetries+1 times, waiting BaseDelay*2^attempt between
// attempts. No jitter is applied. The last error is returned when every
// attempt fails; cancellation of ctx stops the loop early.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < maxRetries {
			if err := sleep(ctx, policy.BaseDelay*(1<<attempt)); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

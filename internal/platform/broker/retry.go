package broker

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryPolicy configures bounded retry with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps every individual wait.
	MaxDelay time.Duration

	// Multiplier is applied to the wait after each failed attempt.
	Multiplier float64

	// Retryable optionally decides whether a failed attempt may be retried.
	// A nil func retries every error.
	Retryable func(error) bool
}

// DefaultRetryPolicy makes three attempts, waiting 1s and then 2s between them.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
	Multiplier:  2.0,
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Delay returns the wait that follows failed attempt n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(n-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, the attempts are used up, or ctx is done.
// It returns the number of attempts made. When ctx ends the loop, the
// returned error wraps ctx.Err() and the last attempt's error.
func (p RetryPolicy) Do(
	ctx context.Context,
	sleep SleepFunc,
	fn func(ctx context.Context, attempt int) error,
) (int, error) {
	if sleep == nil {
		sleep = sleepContext
	}
	maxAttempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before each attempt
		if err := ctx.Err(); err != nil {
			return attempt - 1, joinCancel(err, lastErr)
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return attempt, lastErr
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return attempt, joinCancel(err, lastErr)
		}
	}

	return maxAttempts, lastErr
}

func joinCancel(ctxErr, lastErr error) error {
	if lastErr == nil {
		return ctxErr
	}
	return fmt.Errorf("%w (last error: %w)", ctxErr, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

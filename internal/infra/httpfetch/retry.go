package httpfetch

import (
	"context"
	"time"
)

// CalculateBackoff returns the delay before retry attempt n (0-based),
// doubling from a 1-second base and capping at 5 minutes. The shape
// mirrors the enrichment worker's job backoff schedule, scaled down
// for an interactive HTTP call instead of a background job retry.
func CalculateBackoff(attempt int) time.Duration {
	base := time.Second
	delay := base * time.Duration(1<<uint(attempt))

	const max = 5 * time.Minute
	if delay > max {
		delay = max
	}
	return delay
}

// WithRetry calls fn until it succeeds, maxAttempts is exhausted, or
// ctx is cancelled, sleeping CalculateBackoff between attempts.
func WithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}
		timer := time.NewTimer(CalculateBackoff(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}

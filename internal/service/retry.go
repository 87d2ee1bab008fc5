package service

import (
	"context"
	"time"
)

// retryTransient runs fn until it succeeds, returns a non-transient error
// or attempts are exhausted. The delay doubles after every failed attempt.
func retryTransient(ctx context.Context, attempts int, baseDelay time.Duration, isTransient func(error) bool, onRetry func(attempt int, err error), fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	delay := baseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) || attempt == attempts {
			return err
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return err
}

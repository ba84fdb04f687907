package scraper

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry with linear backoff: after failed attempt n
// (1-based) the caller waits n*BaseDelay before trying again.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep defaults to a context-aware timer; tests swap it out.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Backoff returns the wait after the given failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	return time.Duration(attempt) * p.BaseDelay
}

// Do runs fn until it succeeds or the attempts are used up. It returns the
// number of attempts made and the last error. onRetry, if set, fires before
// each backoff wait.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	limit := p.attempts()
	for attempt := 1; attempt <= limit; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}
		if err = fn(attempt); err == nil {
			return attempt, nil
		}
		if attempt == limit {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if sleepErr := sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
			return attempt, sleepErr
		}
	}
	return limit, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

func TestRetryPolicyBackoffIsLinear(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 3*time.Second, p.Backoff(3))
}

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	sleeper := &fakeSleeper{}
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Sleep: sleeper.Sleep}

	var retried []int
	attempts, err := p.Do(context.Background(), func(attempt int) error {
		if attempt < 3 {
			return errors.New("boom")
		}
		return nil
	}, func(attempt int, _ error) { retried = append(retried, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestRetryPolicySurfacesLastError(t *testing.T) {
	sleeper := &fakeSleeper{}
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Sleep: sleeper.Sleep}

	calls := 0
	attempts, err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("attempt failed")
	}, nil)

	require.EqualError(t, err, "attempt failed")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	// no wait after the final attempt
	assert.Len(t, sleeper.waits, 2)
}

func TestRetryPolicyStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	_, err := p.Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("fail")
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	attempts, err := RetryPolicy{}.Do(context.Background(), func(int) error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

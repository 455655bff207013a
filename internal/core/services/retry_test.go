package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetryDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return domain.Transient(errors.New("backend hiccup"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	transient := domain.Transient(errors.New("still down"))
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		return transient
	})

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, 3, calls)
}

func TestRetryDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func() error {
			calls++
			return domain.Transient(errors.New("transient"))
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    300 * time.Millisecond,
	}

	assert.Equal(t, 100*time.Millisecond, policy.backoff(1))
	assert.Equal(t, 200*time.Millisecond, policy.backoff(2))
	assert.Equal(t, 300*time.Millisecond, policy.backoff(3))
	assert.Equal(t, 300*time.Millisecond, policy.backoff(4))
}

func TestBackoffJitterStaysPositive(t *testing.T) {
	policy := DefaultRetryPolicy()
	for attempt := 1; attempt <= 10; attempt++ {
		assert.Positive(t, policy.backoff(attempt))
	}
}

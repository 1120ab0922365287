package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		IsRetryable:  func(error) bool { return true },
	}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	permanent := errors.New("invalid api key")
	err := Retry(context.Background(), DefaultConfig(), func() error {
		attempts++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		IsRetryable:  func(error) bool { return true },
	}, func() error {
		attempts++
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	assert.Equal(t, 3, attempts)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultConfig(), func() error { return errors.New("timeout") })
	assert.ErrorIs(t, err, ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	assert.True(t, DefaultIsRetryable(errors.New("429 Too Many Requests")))
	assert.True(t, DefaultIsRetryable(errors.New("dial tcp: i/o timeout")))
	assert.False(t, DefaultIsRetryable(errors.New("401 unauthorized")))
	assert.False(t, DefaultIsRetryable(nil))
}

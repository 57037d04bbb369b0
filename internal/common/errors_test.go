package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biguard/biguard/internal/service"
)

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("failed to open database", inner)

	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.True(t, errors.Is(err, inner))

	bare := &UserError{UserMessage: "nothing to import"}
	assert.Equal(t, "nothing to import", bare.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"store unavailable", fmt.Errorf("query failed: %w", ErrStoreUnavailable), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"explicitly retryable", &RetryableError{Err: errors.New("busy"), Retryable: true}, true},
		{"explicitly not retryable", &RetryableError{Err: errors.New("corrupt"), Retryable: false}, false},
		{"not found", ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return ErrStoreUnavailable
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return ErrStoreUnavailable
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	assert.True(t, errors.Is(err, ErrMaxRetries))
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	fatal := &RetryableError{Err: errors.New("schema mismatch"), Retryable: false}

	err := WithRetry(context.Background(), func() error {
		attempts++
		return fatal
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return ErrStoreUnavailable
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

	assert.True(t, errors.Is(err, context.Canceled))
}

package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryConfig_Execute_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := fastRetry().Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryConfig_Execute_GivesUp(t *testing.T) {
	calls := 0
	err := fastRetry().Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		return errors.New("deadline exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "after 2 retries")
}

func TestRetryConfig_Execute_NoRetryOnPermanentError(t *testing.T) {
	calls := 0
	err := fastRetry().Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		return errors.New("rpc error: code = InvalidArgument desc = message name must not be empty")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestRetryConfig_Execute_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := r.Execute(ctx, "publish", func(context.Context) error {
		cancel()
		return errors.New("unavailable")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

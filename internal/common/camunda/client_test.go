package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "jira-askbot/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestWithRetry(t *testing.T) {
	t.Run("transient errors are retried", func(t *testing.T) {
		calls := 0
		got, err := withRetry(context.Background(), fastPolicy, "topology", func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("rpc error: code = Unavailable")
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries run out", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), fastPolicy, "topology", func(context.Context) (int, error) {
			calls++
			return 0, errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternalError))
		assert.Contains(t, err.Error(), "StandardError[INTERNAL_ERROR]")
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), fastPolicy, "deploy", func(context.Context) (int, error) {
			calls++
			return 0, errors.New("rpc error: code = NotFound desc = process not found")
		})
		assert.Equal(t, 1, calls)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	})

	t.Run("cancelled context ends the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}
		_, err := withRetry(ctx, slow, "topology", func(context.Context) (int, error) {
			return 0, errors.New("deadline exceeded")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = InvalidArgument", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.msg)))
		})
	}
}

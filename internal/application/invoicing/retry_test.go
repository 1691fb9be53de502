package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return NewRetrier(RetryConfig{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, nil)
}

func TestRetrier_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fastRetrier(3).Do(ctx, "test", func(context.Context) error {
			calls++
			if calls < 3 {
				return shared.NewTransientStoreError("save", errors.New("connection reset"))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries concurrency conflicts", func(t *testing.T) {
		calls := 0
		err := fastRetrier(2).Do(ctx, "test", func(context.Context) error {
			calls++
			if calls == 1 {
				return shared.NewConcurrencyConflictError("invoice")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("surfaces terminal transient error", func(t *testing.T) {
		calls := 0
		err := fastRetrier(3).Do(ctx, "test", func(context.Context) error {
			calls++
			return shared.NewTransientStoreError("save", errors.New("db down"))
		})
		require.Error(t, err)
		assert.True(t, shared.IsTransient(err))
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry domain errors", func(t *testing.T) {
		calls := 0
		err := fastRetrier(5).Do(ctx, "test", func(context.Context) error {
			calls++
			return shared.NewValidationError("bad input")
		})
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("single attempt when misconfigured", func(t *testing.T) {
		calls := 0
		_ = fastRetrier(0).Do(ctx, "test", func(context.Context) error {
			calls++
			return shared.NewTransientStoreError("save", errors.New("x"))
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := NewRetrier(RetryConfig{MaxAttempts: 10, InitialInterval: time.Hour, MaxInterval: time.Hour}, nil).
			Do(cctx, "test", func(context.Context) error {
				calls++
				cancel()
				return shared.NewTransientStoreError("save", errors.New("x"))
			})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

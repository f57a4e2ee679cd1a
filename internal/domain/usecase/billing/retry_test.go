package billing

import (
	"context"
	"testing"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGuarded(t *testing.T) {
	ctx := context.Background()

	t.Run("conflict restarts the whole attempt", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		attempts := 0
		err := env.svc.runGuarded(ctx, "test_op", 7, func(context.Context) error {
			attempts++
			if attempts == 1 {
				return errs.ErrConcurrencyConflict
			}
			return nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("exhausted conflicts surface a concurrency error", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		attempts := 0
		err := env.svc.runGuarded(ctx, "test_op", 7, func(context.Context) error {
			attempts++
			return errs.ErrConcurrencyConflict
		}, nil)
		assert.ErrorIs(t, err, errs.ErrConcurrencyConflict)
		assert.Equal(t, DefaultConfig().MaxCASRetries, attempts)

		var cce *errs.ConcurrencyConflictError
		require.ErrorAs(t, err, &cce)
		assert.Equal(t, int64(7), cce.UserID)
	})

	t.Run("key collision resolves through replay", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		replayed := false
		err := env.svc.runGuarded(ctx, "test_op", 7, func(context.Context) error {
			return errs.ErrDuplicateOperation
		}, func(context.Context) error {
			replayed = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, replayed)
	})

	t.Run("other errors pass through without retry", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		attempts := 0
		err := env.svc.runGuarded(ctx, "test_op", 7, func(context.Context) error {
			attempts++
			return errs.ErrUserNotFound
		}, nil)
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
		assert.Equal(t, 1, attempts)
	})
}

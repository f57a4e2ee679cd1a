package billing

import (
	"context"
	"testing"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBalanceAdjustment(t *testing.T) {
	ctx := context.Background()

	t.Run("credit adjustment", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		res, err := env.svc.ApplyBalanceAdjustment(ctx, ref, 50_000_000, "admin-1", "goodwill credit", "adj-1")
		require.NoError(t, err)
		assert.Equal(t, int64(50_000_000), res.DeltaMicroCents)
		assert.Equal(t, int64(250_000_000), res.NewBalanceMicroCents)

		env.ledgerSum(t, res.UserID)

		// The journal entry carries the audit trail.
		entries, err := env.uow.Journal(ctx).ListByUser(ctx, res.UserID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, entity.TxAdminAdjust, entries[0].Type)
		assert.Equal(t, "admin-1", entries[0].Metadata["admin_id"])
		assert.Equal(t, "goodwill credit", entries[0].Metadata["reason"])
	})

	t.Run("debit adjustment within the balance", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		res, err := env.svc.ApplyBalanceAdjustment(ctx, ref, -200_000_000, "admin-1", "chargeback", "adj-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.NewBalanceMicroCents)

		env.ledgerSum(t, res.UserID)
	})

	t.Run("debit below zero is rejected", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		_, err := env.svc.ApplyBalanceAdjustment(ctx, ref, -200_000_001, "admin-1", "chargeback", "adj-1")
		assert.ErrorIs(t, err, errs.ErrInsufficientFunds)

		balance, err := env.svc.GetBalance(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, int64(200_000_000), balance.BalanceMicroCents)
	})

	t.Run("same key replays once", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		first, err := env.svc.ApplyBalanceAdjustment(ctx, ref, 10_000_000, "admin-1", "credit", "adj-1")
		require.NoError(t, err)

		replay, err := env.svc.ApplyBalanceAdjustment(ctx, ref, 10_000_000, "admin-1", "credit", "adj-1")
		require.NoError(t, err)
		assert.True(t, replay.Replayed)
		assert.Equal(t, first.NewBalanceMicroCents, replay.NewBalanceMicroCents)

		adjusts, err := env.uow.Journal(ctx).CountByTypeAndUser(ctx, first.UserID, entity.TxAdminAdjust)
		require.NoError(t, err)
		assert.Equal(t, int64(1), adjusts)
	})

	t.Run("validation failures", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		_, err := env.svc.ApplyBalanceAdjustment(ctx, ref, 0, "admin-1", "noop", "adj-1")
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)

		_, err = env.svc.ApplyBalanceAdjustment(ctx, ref, 100, "", "credit", "adj-1")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = env.svc.ApplyBalanceAdjustment(ctx, ref, 100, "admin-1", " ", "adj-1")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = env.svc.ApplyBalanceAdjustment(ctx, ref, entity.CentsToMicro(100_000_000)+1, "admin-1", "credit", "adj-1")
		assert.ErrorIs(t, err, errs.ErrAmountOverflow)
	})
}

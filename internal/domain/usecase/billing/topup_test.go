package billing

import (
	"context"
	"testing"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupUser(t *testing.T, env *testEnv, externalID string) entity.UserRef {
	t.Helper()
	res, err := env.svc.CreateUserWithSignupCredit(context.Background(), externalID, "", "", "sig-"+externalID)
	require.NoError(t, err)
	return entity.InternalRef(res.UserID)
}

func TestApplyTopup(t *testing.T) {
	ctx := context.Background()

	t.Run("first topup earns the percentage bonus", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		// 10 dollars at 20% earns 200 cents, well under the 500 cent cap.
		res, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_000_000), res.AmountMicroCents)
		assert.Equal(t, int64(200_000_000), res.BonusMicroCents)
		assert.Equal(t, int64(1_400_000_000), res.NewBalanceMicroCents)

		env.ledgerSum(t, res.UserID)
	})

	t.Run("bonus is capped", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		// 100 dollars at 20% would be 2000 cents; the cap clamps it to 500.
		res, err := env.svc.ApplyTopup(ctx, ref, 10_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.Equal(t, int64(500_000_000), res.BonusMicroCents)
	})

	t.Run("only the first paid topup earns a bonus", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		first, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.Equal(t, int64(200_000_000), first.BonusMicroCents)

		second, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_2", "top-2")
		require.NoError(t, err)
		assert.Equal(t, int64(0), second.BonusMicroCents)

		bonuses, err := env.uow.Journal(ctx).CountByTypeAndUser(ctx, first.UserID, entity.TxBonus)
		require.NoError(t, err)
		assert.Equal(t, int64(1), bonuses)
	})

	t.Run("zero-amount topup does not consume the bonus", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		free, err := env.svc.ApplyTopup(ctx, ref, 0, "promo", "promo_1", "top-0")
		require.NoError(t, err)
		assert.Equal(t, int64(0), free.BonusMicroCents)

		paid, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.Equal(t, int64(200_000_000), paid.BonusMicroCents)
	})

	t.Run("same key replays without a second credit", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		first, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)

		replay, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.True(t, replay.Replayed)
		assert.Equal(t, first.TopupID, replay.TopupID)
		assert.Equal(t, first.NewBalanceMicroCents, replay.NewBalanceMicroCents)

		env.ledgerSum(t, first.UserID)
	})

	t.Run("duplicate payment reference is rejected", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		_, err := env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)

		// A different idempotency key reusing the provider's payment id must
		// not credit the payment twice.
		_, err = env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "pi_1", "top-other")
		assert.ErrorIs(t, err, errs.ErrConstraintViolation)
	})

	t.Run("provisions an unseen external identity", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		// Webhook delivery can land before the signup path ever ran.
		res, err := env.svc.ApplyTopup(ctx, entity.ExternalRef("auth0|dave"), 1_000_000_000, "stripe", "pi_1", "top-1")
		require.NoError(t, err)
		assert.NotZero(t, res.UserID)

		user, err := env.uow.Users(ctx).GetByExternalID(ctx, "auth0|dave")
		require.NoError(t, err)
		assert.Equal(t, res.UserID, user.ID)
		assert.False(t, user.ReceivedSignupCredit)
	})

	t.Run("validation failures", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())
		ref := signupUser(t, env, "auth0|alice")

		_, err := env.svc.ApplyTopup(ctx, ref, -1, "stripe", "pi_1", "top-1")
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)

		_, err = env.svc.ApplyTopup(ctx, ref, entity.CentsToMicro(100_000_000)+1, "stripe", "pi_1", "top-1")
		assert.ErrorIs(t, err, errs.ErrAmountOverflow)

		_, err = env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "", "pi_1", "top-1")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = env.svc.ApplyTopup(ctx, ref, 1_000_000_000, "stripe", "", "top-1")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = env.svc.ApplyTopup(ctx, entity.InternalRef(0), 1_000_000_000, "stripe", "pi_1", "top-1")
		assert.ErrorIs(t, err, errs.ErrInvalidUserRef)
	})

	t.Run("unknown internal user is rejected", func(t *testing.T) {
		env := newTestEnv(t, DefaultConfig())

		_, err := env.svc.ApplyTopup(ctx, entity.InternalRef(999), 1_000_000_000, "stripe", "pi_1", "top-1")
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

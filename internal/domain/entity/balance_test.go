package entity

import (
	"testing"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroBalance(t *testing.T) {
	b := ZeroBalance(42)
	assert.Equal(t, int64(42), b.UserID)
	assert.Equal(t, int64(0), b.BalanceMicroCents)
	assert.Equal(t, int64(0), b.Version)
}

func TestBalanceWithDelta(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("credit bumps version by one", func(t *testing.T) {
		b := ZeroBalance(1)
		next, err := b.WithDelta(200_000_000, now)
		require.NoError(t, err)
		assert.Equal(t, int64(200_000_000), next.BalanceMicroCents)
		assert.Equal(t, int64(1), next.Version)
		assert.Equal(t, now, next.UpdatedAt)
	})

	t.Run("debit down to exactly zero is allowed", func(t *testing.T) {
		b := &Balance{UserID: 1, BalanceMicroCents: 500, Version: 3}
		next, err := b.WithDelta(-500, now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), next.BalanceMicroCents)
		assert.Equal(t, int64(4), next.Version)
	})

	t.Run("debit below zero is rejected", func(t *testing.T) {
		b := &Balance{UserID: 1, BalanceMicroCents: 500, Version: 3}
		next, err := b.WithDelta(-501, now)
		assert.Nil(t, next)
		assert.ErrorIs(t, err, errs.ErrInsufficientFunds)

		var ife *errs.InsufficientFundsError
		require.ErrorAs(t, err, &ife)
		assert.Equal(t, int64(1), ife.UserID)
		assert.Equal(t, int64(501), ife.RequiredMicro)
		assert.Equal(t, int64(500), ife.BalanceMicro)
	})

	t.Run("snapshot is not mutated", func(t *testing.T) {
		b := &Balance{UserID: 1, BalanceMicroCents: 100, Version: 2}
		_, err := b.WithDelta(50, now)
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.BalanceMicroCents)
		assert.Equal(t, int64(2), b.Version)
	})
}

func TestBalanceAvailable(t *testing.T) {
	b := &Balance{BalanceMicroCents: 1_000, ReservedMicroCents: 300}
	assert.Equal(t, int64(700), b.Available())
}

package entity

import (
	"testing"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usageTestPrice(inputMicro, outputMicro int64) *ModelTokenPrice {
	return &ModelTokenPrice{
		ID:                    1,
		ModelID:               "gpt-4o",
		Provider:              "openai",
		InputPriceMicroCents:  inputMicro,
		OutputPriceMicroCents: outputMicro,
		EffectiveFrom:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewUsageLog(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("computes cost, fee and total", func(t *testing.T) {
		// 6000 in + 4000 out at a blended 2000 micro-cents per token.
		log, err := NewUsageLog(10, 7, "gpt-4o", "call-1", 6000, 4000, usageTestPrice(2000, 2000), 1400, "key-1", now)
		require.NoError(t, err)

		assert.Equal(t, int64(20_000_000), log.ProviderCostMicroCents)
		assert.Equal(t, int64(2_800_000), log.FeeMicroCents)
		assert.Equal(t, int64(22_800_000), log.TotalChargeMicroCents)
		assert.Equal(t, int64(2000), log.InputPriceMicroCents)
		assert.Equal(t, int64(2000), log.OutputPriceMicroCents)
	})

	t.Run("asymmetric rates", func(t *testing.T) {
		log, err := NewUsageLog(10, 7, "gpt-4o", "call-2", 100, 50, usageTestPrice(1000, 3000), 1400, "key-2", now)
		require.NoError(t, err)

		// 100*1000 + 50*3000 = 250_000; fee = 14% = 35_000.
		assert.Equal(t, int64(250_000), log.ProviderCostMicroCents)
		assert.Equal(t, int64(35_000), log.FeeMicroCents)
		assert.Equal(t, int64(285_000), log.TotalChargeMicroCents)
	})

	t.Run("zero tokens cost nothing", func(t *testing.T) {
		log, err := NewUsageLog(10, 7, "gpt-4o", "call-3", 0, 0, usageTestPrice(2000, 2000), 1400, "key-3", now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), log.TotalChargeMicroCents)
	})

	t.Run("validation failures", func(t *testing.T) {
		p := usageTestPrice(2000, 2000)

		_, err := NewUsageLog(10, 0, "gpt-4o", "c", 1, 1, p, 1400, "k", now)
		assert.ErrorIs(t, err, errs.ErrInvalidUserRef)

		_, err = NewUsageLog(10, 7, "  ", "c", 1, 1, p, 1400, "k", now)
		assert.ErrorIs(t, err, errs.ErrInvalidModelID)

		_, err = NewUsageLog(10, 7, "gpt-4o", "c", -1, 1, p, 1400, "k", now)
		assert.ErrorIs(t, err, errs.ErrInvalidTokenCount)
	})
}

func TestUsageLogTerminalStates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log, err := NewUsageLog(10, 7, "gpt-4o", "call-1", 10, 10, usageTestPrice(2000, 2000), 1400, "k", now)
	require.NoError(t, err)

	log.MarkCharged(99)
	assert.Equal(t, UsageCharged, log.Status)
	assert.Equal(t, int64(99), log.ChargeTransactionID)

	log.MarkFailed()
	assert.Equal(t, UsageFailed, log.Status)
	assert.Equal(t, int64(0), log.ChargeTransactionID)
}

func TestModelTokenPriceActiveAt(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("open-ended row", func(t *testing.T) {
		p := usageTestPrice(1000, 1000)
		p.EffectiveFrom = from
		assert.False(t, p.ActiveAt(from.Add(-time.Microsecond)))
		assert.True(t, p.ActiveAt(from))
		assert.True(t, p.ActiveAt(from.AddDate(10, 0, 0)))
	})

	t.Run("closed row", func(t *testing.T) {
		p := usageTestPrice(1000, 1000)
		p.EffectiveFrom = from
		p.EffectiveTo = &to
		assert.True(t, p.ActiveAt(to))
		assert.False(t, p.ActiveAt(to.Add(time.Microsecond)))
	})
}

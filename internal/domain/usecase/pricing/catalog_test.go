package pricing

import (
	"context"
	"testing"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/database"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/idgen"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/logger"
	timeadapter "github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, *timeadapter.FixedTimeProvider) {
	t.Helper()

	db := database.OpenTestDB(t)
	log := logger.NewNoopLogger()
	clock := timeadapter.NewFixedTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	uow := database.NewUnitOfWork(db, log, clock)

	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)

	return NewCatalog(uow, gen, clock, log), clock
}

func TestSetPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("first price opens the history", func(t *testing.T) {
		catalog, clock := newTestCatalog(t)

		price, err := catalog.SetPrice(ctx, "gpt-4o", "openai", 1000, 3000, time.Time{}, "admin-1", "launch pricing")
		require.NoError(t, err)
		assert.Equal(t, clock.Now(), price.EffectiveFrom)
		assert.Nil(t, price.EffectiveTo)

		active, err := catalog.ActivePrice(ctx, "gpt-4o", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, int64(1000), active.InputPriceMicroCents)
		assert.Equal(t, int64(3000), active.OutputPriceMicroCents)
	})

	t.Run("new version closes the previous row without overlap", func(t *testing.T) {
		catalog, clock := newTestCatalog(t)

		_, err := catalog.SetPrice(ctx, "gpt-4o", "openai", 1000, 3000, time.Time{}, "admin-1", "launch pricing")
		require.NoError(t, err)

		firstFrom := clock.Now()
		clock.Advance(24 * time.Hour)
		secondFrom := clock.Now()

		_, err = catalog.SetPrice(ctx, "gpt-4o", "openai", 1200, 3600, secondFrom, "admin-1", "provider price increase")
		require.NoError(t, err)

		history, err := catalog.PriceHistory(ctx, "gpt-4o")
		require.NoError(t, err)
		require.Len(t, history, 2)

		closed, open := history[0], history[1]
		assert.True(t, closed.EffectiveFrom.Equal(firstFrom))
		require.NotNil(t, closed.EffectiveTo)
		assert.True(t, closed.EffectiveTo.Equal(secondFrom.Add(-time.Microsecond)))
		assert.Nil(t, open.EffectiveTo)

		// Lookups on either side of the switch resolve to the right version.
		before, err := catalog.ActivePrice(ctx, "gpt-4o", secondFrom.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1000), before.InputPriceMicroCents)

		after, err := catalog.ActivePrice(ctx, "gpt-4o", secondFrom)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), after.InputPriceMicroCents)
	})

	t.Run("blended price stores the same rate twice", func(t *testing.T) {
		catalog, _ := newTestCatalog(t)

		price, err := catalog.SetBlendedPrice(ctx, "gpt-4o-mini", "openai", 500, time.Time{}, "admin-1", "blended rate")
		require.NoError(t, err)
		assert.Equal(t, int64(500), price.InputPriceMicroCents)
		assert.Equal(t, int64(500), price.OutputPriceMicroCents)
	})

	t.Run("models are priced independently", func(t *testing.T) {
		catalog, _ := newTestCatalog(t)

		_, err := catalog.SetBlendedPrice(ctx, "gpt-4o", "openai", 2000, time.Time{}, "admin-1", "setup")
		require.NoError(t, err)
		_, err = catalog.SetBlendedPrice(ctx, "claude-sonnet", "anthropic", 1500, time.Time{}, "admin-1", "setup")
		require.NoError(t, err)

		history, err := catalog.PriceHistory(ctx, "gpt-4o")
		require.NoError(t, err)
		assert.Len(t, history, 1)
		assert.Nil(t, history[0].EffectiveTo)
	})

	t.Run("validation failures", func(t *testing.T) {
		catalog, _ := newTestCatalog(t)

		_, err := catalog.SetPrice(ctx, "", "openai", 1000, 3000, time.Time{}, "admin-1", "r")
		assert.ErrorIs(t, err, errs.ErrInvalidModelID)

		_, err = catalog.SetPrice(ctx, "gpt-4o", "", 1000, 3000, time.Time{}, "admin-1", "r")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = catalog.SetPrice(ctx, "gpt-4o", "openai", -1, 3000, time.Time{}, "admin-1", "r")
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
	})
}

func TestActivePriceMissing(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	_, err := catalog.ActivePrice(context.Background(), "never-priced", time.Time{})
	assert.ErrorIs(t, err, errs.ErrPricingNotConfigured)
}

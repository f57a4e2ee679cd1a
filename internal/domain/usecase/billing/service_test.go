package billing

import (
	"context"
	"testing"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/pricing"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/database"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/idgen"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/logger"
	timeadapter "github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv wires the billing service against an in-memory database, a pinned
// clock and a real id generator.
type testEnv struct {
	svc     *Service
	catalog *pricing.Catalog
	uow     persistence.UnitOfWork
	clock   *timeadapter.FixedTimeProvider
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	db := database.OpenTestDB(t)
	log := logger.NewNoopLogger()
	clock := timeadapter.NewFixedTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	uow := database.NewUnitOfWork(db, log, clock)

	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)

	return &testEnv{
		svc:     NewService(cfg, uow, gen, clock, log, nil),
		catalog: pricing.NewCatalog(uow, gen, clock, log),
		uow:     uow,
		clock:   clock,
	}
}

// setBlendedPrice installs a single per-token rate effective immediately.
func (e *testEnv) setBlendedPrice(t *testing.T, modelID, provider string, priceMicro int64) {
	t.Helper()
	_, err := e.catalog.SetBlendedPrice(context.Background(), modelID, provider, priceMicro, time.Time{}, "admin-1", "test setup")
	require.NoError(t, err)
}

// ledgerSum asserts that the user's journal entries sum to their balance.
func (e *testEnv) ledgerSum(t *testing.T, userID int64) {
	t.Helper()
	ctx := context.Background()

	sum, err := e.uow.Journal(ctx).SumByUser(ctx, userID)
	require.NoError(t, err)
	balance, err := e.uow.Balances(ctx).Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, balance.BalanceMicroCents, sum, "journal sum must equal balance")
}

// TestFullBillingFlow walks one user through the complete lifecycle: signup
// credit, first paid topup with the capped bonus, and a metered charge.
func TestFullBillingFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, DefaultConfig())
	env.setBlendedPrice(t, "gpt-4o", "openai", 2000)

	// Signup grants the 200 cent credit.
	signup, err := env.svc.CreateUserWithSignupCredit(ctx, "auth0|alice", "alice@example.com", "Alice", "sig-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200_000_000), signup.CreditedMicroCents)
	assert.Equal(t, int64(200_000_000), signup.BalanceMicroCents)

	ref := entity.InternalRef(signup.UserID)

	// First paid topup of 25 dollars: 20% bonus would be 500 cents, which is
	// exactly the cap.
	topup, err := env.svc.ApplyTopup(ctx, ref, 2_500_000_000, "stripe", "pi_alice_1", "top-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500_000_000), topup.BonusMicroCents)
	assert.Equal(t, int64(3_200_000_000), topup.NewBalanceMicroCents)

	// 10,000 tokens at 2000 micro-cents each: 20,000,000 provider cost plus
	// a 14% fee of 2,800,000.
	charge, err := env.svc.FinalizeUsageCharge(ctx, ref, "gpt-4o", "call-1", 6000, 4000, "chg-1")
	require.NoError(t, err)
	assert.True(t, charge.Charged)
	assert.Equal(t, int64(20_000_000), charge.ProviderCostMicroCents)
	assert.Equal(t, int64(2_800_000), charge.FeeMicroCents)
	assert.Equal(t, int64(22_800_000), charge.TotalMicroCents)
	assert.Equal(t, int64(3_177_200_000), charge.BalanceMicroCents)

	// The journal remains the ground truth for the balance.
	env.ledgerSum(t, signup.UserID)

	bonuses, err := env.uow.Journal(ctx).CountByTypeAndUser(ctx, signup.UserID, entity.TxBonus)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bonuses)
}

func TestPurgeExpiredIdempotencyKeys(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, DefaultConfig())

	_, err := env.svc.CreateUserWithSignupCredit(ctx, "auth0|bob", "", "", "sig-bob")
	require.NoError(t, err)

	// Within the retention window nothing is purged.
	purged, err := env.svc.PurgeExpiredIdempotencyKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	env.clock.Advance(91 * 24 * time.Hour)

	purged, err = env.svc.PurgeExpiredIdempotencyKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	rec, err := env.uow.Idempotency(ctx).Get(ctx, "sig-bob")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

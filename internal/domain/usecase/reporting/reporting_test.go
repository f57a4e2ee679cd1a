package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/billing"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/pricing"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/database"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/idgen"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/logger"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	timeadapter "github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reportingEnv struct {
	reporter *Reporter
	svc      *billing.Service
	catalog  *pricing.Catalog
	clock    *timeadapter.FixedTimeProvider
	db       *gorm.DB
}

func newReportingEnv(t *testing.T) *reportingEnv {
	t.Helper()

	db := database.OpenTestDB(t)
	log := logger.NewNoopLogger()
	clock := timeadapter.NewFixedTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	uow := database.NewUnitOfWork(db, log, clock)

	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)

	return &reportingEnv{
		reporter: NewReporter(uow, gen, clock, log),
		svc:      billing.NewService(billing.DefaultConfig(), uow, gen, clock, log, nil),
		catalog:  pricing.NewCatalog(uow, gen, clock, log),
		clock:    clock,
		db:       db,
	}
}

// seedActivity produces one charged call for a funded user and one denied
// call for an unfunded one.
func (e *reportingEnv) seedActivity(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := e.catalog.SetBlendedPrice(ctx, "gpt-4o", "openai", 2000, time.Time{}, "admin-1", "setup")
	require.NoError(t, err)

	alice, err := e.svc.CreateUserWithSignupCredit(ctx, "auth0|alice", "", "", "sig-a")
	require.NoError(t, err)
	aliceRef := entity.InternalRef(alice.UserID)

	_, err = e.svc.ApplyTopup(ctx, aliceRef, 1_000_000_000, "stripe", "pi_1", "top-1")
	require.NoError(t, err)

	// 100,000 tokens: 200,000,000 micro-cents cost plus 28,000,000 fee.
	charge, err := e.svc.FinalizeUsageCharge(ctx, aliceRef, "gpt-4o", "call-1", 50_000, 50_000, "chg-1")
	require.NoError(t, err)
	require.True(t, charge.Charged)

	bob, err := e.svc.CreateUserWithSignupCredit(ctx, "auth0|bob", "", "", "sig-b")
	require.NoError(t, err)

	denied, err := e.svc.FinalizeUsageCharge(ctx, entity.InternalRef(bob.UserID), "gpt-4o", "call-2", 500_000, 500_000, "chg-2")
	require.NoError(t, err)
	require.False(t, denied.Charged)
}

func (e *reportingEnv) window() (time.Time, time.Time) {
	return e.clock.Now().Add(-time.Hour), e.clock.Now().Add(time.Hour)
}

func TestBillingAnalytics(t *testing.T) {
	ctx := context.Background()
	env := newReportingEnv(t)
	env.seedActivity(t)
	start, end := env.window()

	analytics, err := env.reporter.BillingAnalytics(ctx, start, end)
	require.NoError(t, err)

	assert.Equal(t, int64(2), analytics.TotalCalls)
	assert.Equal(t, int64(1), analytics.FailedCalls)
	assert.Equal(t, int64(2), analytics.DistinctUsers)
	assert.Equal(t, int64(1_000_000_000), analytics.TopupMicroCents)
	assert.Equal(t, int64(200_000_000), analytics.BonusMicroCents)
	assert.Equal(t, int64(200_000_000), analytics.ProviderCostMicroCents)
	assert.Equal(t, int64(28_000_000), analytics.FeeRevenueMicroCents)
	assert.Equal(t, int64(28_000_000), analytics.GrossMarginMicroCents)
}

func TestBillingAnalyticsRejectsEmptyWindow(t *testing.T) {
	env := newReportingEnv(t)
	now := env.clock.Now()

	_, err := env.reporter.BillingAnalytics(context.Background(), now, now)
	assert.ErrorIs(t, err, errs.ErrInvalidReference)
}

func TestReconciliationData(t *testing.T) {
	ctx := context.Background()

	t.Run("matching invoice reconciles within tolerance", func(t *testing.T) {
		env := newReportingEnv(t)
		env.seedActivity(t)
		start, end := env.window()

		// The accrued provider cost is 200,000,000 micro-cents = 200 cents.
		invoice, err := env.reporter.RecordProviderInvoice(ctx, "openai", time.Time{}, 200, map[string]any{"invoice_no": "INV-1"})
		require.NoError(t, err)

		rec, err := env.reporter.ReconciliationData(ctx, start, end, "openai")
		require.NoError(t, err)
		assert.Equal(t, int64(200), rec.RecordedCostCents)
		assert.Equal(t, int64(200), rec.InvoicedCents)
		assert.Equal(t, int64(0), rec.VarianceCents)
		assert.True(t, rec.Reconciled)

		// A reconciled run flags the matched invoices.
		var stored model.ProviderInvoice
		require.NoError(t, env.db.First(&stored, "id = ?", invoice.ID).Error)
		assert.True(t, stored.Reconciled)
	})

	t.Run("variance beyond tolerance stays unreconciled", func(t *testing.T) {
		env := newReportingEnv(t)
		env.seedActivity(t)
		start, end := env.window()

		invoice, err := env.reporter.RecordProviderInvoice(ctx, "openai", time.Time{}, 400, nil)
		require.NoError(t, err)

		rec, err := env.reporter.ReconciliationData(ctx, start, end, "openai")
		require.NoError(t, err)
		assert.Equal(t, int64(200), rec.VarianceCents)
		assert.Equal(t, float64(50), rec.VariancePercent)
		assert.False(t, rec.Reconciled)

		var stored model.ProviderInvoice
		require.NoError(t, env.db.First(&stored, "id = ?", invoice.ID).Error)
		assert.False(t, stored.Reconciled)
	})

	t.Run("provider filter excludes other providers", func(t *testing.T) {
		env := newReportingEnv(t)
		env.seedActivity(t)
		start, end := env.window()

		rec, err := env.reporter.ReconciliationData(ctx, start, end, "anthropic")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rec.RecordedCostCents)
		assert.Equal(t, int64(0), rec.InvoicedCents)
	})
}

func TestRecordProviderInvoice(t *testing.T) {
	ctx := context.Background()
	env := newReportingEnv(t)

	t.Run("stores the invoice", func(t *testing.T) {
		invoice, err := env.reporter.RecordProviderInvoice(ctx, "openai", time.Time{}, 1234, map[string]any{"invoice_no": "INV-9"})
		require.NoError(t, err)
		assert.NotZero(t, invoice.ID)
		assert.Equal(t, int64(1234), invoice.AmountCents)
		assert.False(t, invoice.Reconciled)
	})

	t.Run("validation failures", func(t *testing.T) {
		_, err := env.reporter.RecordProviderInvoice(ctx, "", time.Time{}, 100, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidReference)

		_, err = env.reporter.RecordProviderInvoice(ctx, "openai", time.Time{}, -1, nil)
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
	})
}

func TestUserStatement(t *testing.T) {
	ctx := context.Background()
	env := newReportingEnv(t)
	env.seedActivity(t)

	alice, err := env.svc.GetBalance(ctx, entity.ExternalRef("auth0|alice"))
	require.NoError(t, err)

	statement, err := env.reporter.UserStatement(ctx, alice.UserID, 10)
	require.NoError(t, err)

	// Signup credit, topup, bonus, and the charge debit.
	require.Len(t, statement, 4)
	assert.Equal(t, entity.TxModelCharge, statement[0].Type)

	var sum int64
	for _, tx := range statement {
		sum += tx.AmountMicroCents
	}
	assert.Equal(t, alice.BalanceMicroCents, sum)
}

package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
)

// ReconciliationToleranceCents is the largest absolute variance, in whole
// cents, still considered reconciled. Rounding of micro-cent accruals to
// invoice cents legitimately produces sub-dollar drift.
const ReconciliationToleranceCents = 100

// Reporter serves read-only analytics and reconciliation over the journal,
// usage logs and provider invoices.
type Reporter struct {
	uow          persistence.UnitOfWork
	idGen        coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewReporter creates the reporting service.
func NewReporter(
	uow persistence.UnitOfWork,
	idGen coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Reporter {
	return &Reporter{
		uow:          uow,
		idGen:        idGen,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Analytics is the platform-level billing summary for a window. Monetary
// fields are micro-cents.
type Analytics struct {
	Start                  time.Time
	End                    time.Time
	TotalCalls             int64
	FailedCalls            int64
	DistinctUsers          int64
	TopupMicroCents        int64
	BonusMicroCents        int64
	ProviderCostMicroCents int64
	FeeRevenueMicroCents   int64
	AdjustmentMicroCents   int64
	GrossMarginMicroCents  int64
}

// BillingAnalytics aggregates journal and usage activity for a window. The
// gross margin is fee revenue: the provider cost portion of every charge is
// pass-through.
func (r *Reporter) BillingAnalytics(ctx context.Context, start, end time.Time) (*Analytics, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: window end must be after start", errs.ErrInvalidReference)
	}

	journal, err := r.uow.Journal(ctx).Aggregate(ctx, start, end)
	if err != nil {
		return nil, err
	}
	usage, err := r.uow.UsageLogs(ctx).Aggregate(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &Analytics{
		Start:                  start,
		End:                    end,
		TotalCalls:             usage.TotalCalls,
		FailedCalls:            usage.FailedCalls,
		DistinctUsers:          usage.DistinctUsers,
		TopupMicroCents:        journal.TopupMicroCents,
		BonusMicroCents:        journal.BonusMicroCents,
		ProviderCostMicroCents: journal.ProviderCostMicroCents,
		FeeRevenueMicroCents:   journal.FeeRevenueMicroCents,
		AdjustmentMicroCents:   journal.AdjustmentMicroCents,
		GrossMarginMicroCents:  journal.FeeRevenueMicroCents,
	}, nil
}

// Reconciliation compares recorded provider cost accruals against invoiced
// amounts for a window.
type Reconciliation struct {
	Start             time.Time
	End               time.Time
	Provider          string
	RecordedCostCents int64
	InvoicedCents     int64
	VarianceCents     int64
	VariancePercent   float64
	Reconciled        bool
}

// ReconciliationData sums provider_payable_accrual journal entries and
// invoice amounts for the window and reports the variance. When the variance
// is inside the tolerance, matching invoices are flagged reconciled.
func (r *Reporter) ReconciliationData(ctx context.Context, start, end time.Time, provider string) (*Reconciliation, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: window end must be after start", errs.ErrInvalidReference)
	}

	accruedMicro, err := r.uow.Journal(ctx).SumProviderAccrual(ctx, start, end, provider)
	if err != nil {
		return nil, err
	}
	invoicedCents, err := r.uow.Invoices(ctx).SumAmountCents(ctx, start, end, provider)
	if err != nil {
		return nil, err
	}

	recordedCents := entity.MicroToCentsRounded(accruedMicro)
	variance := recordedCents - invoicedCents
	if variance < 0 {
		variance = -variance
	}

	var variancePct float64
	if invoicedCents != 0 {
		variancePct = float64(variance) / float64(invoicedCents) * 100
	}

	reconciled := variance < ReconciliationToleranceCents
	if reconciled && invoicedCents > 0 {
		if err := r.uow.Invoices(ctx).MarkReconciled(ctx, start, end, provider); err != nil {
			return nil, err
		}
	}

	r.logger.Info("Reconciliation computed", map[string]any{
		"provider":       provider,
		"recorded_cents": recordedCents,
		"invoiced_cents": invoicedCents,
		"variance_cents": variance,
		"reconciled":     reconciled,
	})
	return &Reconciliation{
		Start:             start,
		End:               end,
		Provider:          provider,
		RecordedCostCents: recordedCents,
		InvoicedCents:     invoicedCents,
		VarianceCents:     variance,
		VariancePercent:   variancePct,
		Reconciled:        reconciled,
	}, nil
}

// RecordProviderInvoice stores an externally reported invoice amount for
// later reconciliation.
func (r *Reporter) RecordProviderInvoice(
	ctx context.Context,
	provider string,
	invoiceDate time.Time,
	amountCents int64,
	metadata map[string]any,
) (*entity.ProviderInvoice, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, fmt.Errorf("%w: provider is required", errs.ErrInvalidReference)
	}
	if amountCents < 0 {
		return nil, errs.ErrNegativeAmount
	}
	if invoiceDate.IsZero() {
		invoiceDate = r.timeProvider.Now()
	}

	invoice, err := entity.NewProviderInvoice(r.idGen.NextID(), provider, invoiceDate, amountCents, metadata, r.timeProvider.Now())
	if err != nil {
		return nil, err
	}
	if err := r.uow.Invoices(ctx).Create(ctx, invoice); err != nil {
		return nil, err
	}

	r.logger.Info("Provider invoice recorded", map[string]any{
		"invoice_id":   invoice.ID,
		"provider":     provider,
		"amount_cents": amountCents,
	})
	return invoice, nil
}

// UserStatement returns a user's recent journal entries, newest first.
func (r *Reporter) UserStatement(ctx context.Context, userID int64, limit int) ([]*entity.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.uow.Journal(ctx).ListByUser(ctx, userID, limit)
}

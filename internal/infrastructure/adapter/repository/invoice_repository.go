package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceRepository implements persistence.InvoiceRepository using GORM
type InvoiceRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewInvoiceRepository creates a new InvoiceRepository instance
func NewInvoiceRepository(db *gorm.DB, logger coreport.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an invoice row
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.ProviderInvoice) error {
	m := model.ProviderInvoice{
		ID:          invoice.ID,
		Provider:    invoice.Provider,
		InvoiceDate: invoice.InvoiceDate,
		AmountCents: invoice.AmountCents,
		Metadata:    datatypes.JSONMap(invoice.Metadata),
		Reconciled:  invoice.Reconciled,
		CreatedAt:   invoice.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Database error when creating invoice", map[string]any{
			"invoice_id": invoice.ID,
			"provider":   invoice.Provider,
			"error":      result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// SumAmountCents sums invoiced cents in a window
func (r *InvoiceRepository) SumAmountCents(ctx context.Context, start, end time.Time, provider string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProviderInvoice{}).
		Where("invoice_date >= ? AND invoice_date < ?", start, end)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}

	var sum int64
	result := q.Select("COALESCE(SUM(amount_cents), 0)").Scan(&sum)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return sum, nil
}

// MarkReconciled flags every invoice in the window as reconciled
func (r *InvoiceRepository) MarkReconciled(ctx context.Context, start, end time.Time, provider string) error {
	q := r.db.WithContext(ctx).Model(&model.ProviderInvoice{}).
		Where("invoice_date >= ? AND invoice_date < ?", start, end)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}

	result := q.Update("reconciled", true)
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

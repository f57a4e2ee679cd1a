package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// InvoiceRepository persists externally reported provider invoices.
type InvoiceRepository interface {
	// Create inserts an invoice row.
	Create(ctx context.Context, invoice *entity.ProviderInvoice) error

	// SumAmountCents sums invoiced cents in a window, optionally filtered
	// by provider.
	SumAmountCents(ctx context.Context, start, end time.Time, provider string) (int64, error)

	// MarkReconciled flags every invoice in the window as reconciled.
	MarkReconciled(ctx context.Context, start, end time.Time, provider string) error
}

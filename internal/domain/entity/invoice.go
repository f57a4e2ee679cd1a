package entity

import (
	"strings"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// ProviderInvoice is an externally reported provider cost used by
// reconciliation. Amounts arrive in whole cents because that is the
// granularity providers invoice at.
type ProviderInvoice struct {
	ID          int64
	Provider    string
	InvoiceDate time.Time
	AmountCents int64
	Metadata    map[string]any
	Reconciled  bool
	CreatedAt   time.Time
}

// NewProviderInvoice validates and builds an invoice row.
func NewProviderInvoice(id int64, provider string, invoiceDate time.Time, amountCents int64, metadata map[string]any, now time.Time) (*ProviderInvoice, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, errs.ErrInvalidReference
	}
	if amountCents < 0 {
		return nil, errs.ErrNegativeAmount
	}

	return &ProviderInvoice{
		ID:          id,
		Provider:    provider,
		InvoiceDate: invoiceDate,
		AmountCents: amountCents,
		Metadata:    metadata,
		CreatedAt:   now,
	}, nil
}

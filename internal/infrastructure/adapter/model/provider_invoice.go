package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProviderInvoice represents the database model for externally reported
// provider invoices used by reconciliation.
type ProviderInvoice struct {
	ID          int64     `gorm:"primaryKey"`
	Provider    string    `gorm:"not null;size:100;index"`
	InvoiceDate time.Time `gorm:"not null;index"`
	AmountCents int64     `gorm:"not null"`
	Metadata    datatypes.JSONMap
	Reconciled  bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for ProviderInvoice
func (ProviderInvoice) TableName() string {
	return "provider_invoices"
}

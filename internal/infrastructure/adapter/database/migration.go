package database

import (
	"fmt"

	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// Migrate creates or updates the billing schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.BillingUser{},
		&model.Balance{},
		&model.Transaction{},
		&model.Topup{},
		&model.UsageLog{},
		&model.ModelTokenPrice{},
		&model.ProviderInvoice{},
		&model.IdempotencyKey{},
	); err != nil {
		return fmt.Errorf("failed to migrate billing schema: %w", err)
	}
	return nil
}

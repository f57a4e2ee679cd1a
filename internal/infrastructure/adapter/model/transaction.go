package model

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction represents the database model for journal entries. The table
// is append-only: rows are inserted inside the unit of work that moves the
// balance and are never updated or deleted afterwards.
type Transaction struct {
	ID                     int64  `gorm:"primaryKey"`
	UserID                 int64  `gorm:"index;not null;default:0"`
	Type                   string `gorm:"not null;size:50;index"`
	AmountMicroCents       int64  `gorm:"not null"`
	ProviderCostMicroCents int64  `gorm:"not null;default:0"`
	FeeMicroCents          int64  `gorm:"not null;default:0"`
	Provider               string `gorm:"size:100;index"`
	ReferenceID            int64  `gorm:"index;not null;default:0"`
	IdempotencyKey         string `gorm:"size:255;index"`
	Metadata               datatypes.JSONMap
	CreatedAt              time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

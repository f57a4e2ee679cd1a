package model

import (
	"time"
)

// Topup represents the database model for applied topups. The payment
// reference carries a uniqueness constraint per provider so a replayed
// webhook can never insert a second row.
type Topup struct {
	ID               int64     `gorm:"primaryKey"`
	UserID           int64     `gorm:"index;not null"`
	AmountMicroCents int64     `gorm:"not null"`
	BonusMicroCents  int64     `gorm:"not null;default:0"`
	PaymentProvider  string    `gorm:"not null;size:100;uniqueIndex:idx_topup_payment_ref"`
	PaymentReference string    `gorm:"not null;size:255;uniqueIndex:idx_topup_payment_ref"`
	Status           string    `gorm:"not null;size:50"`
	IdempotencyKey   string    `gorm:"size:255;index"`
	CreatedAt        time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for Topup
func (Topup) TableName() string {
	return "topups"
}

package model

import (
	"time"
)

// UsageLog represents the database model for metered call attempts. Denied
// attempts are stored too, with status failed and no charge transaction.
type UsageLog struct {
	ID                     int64     `gorm:"primaryKey"`
	UserID                 int64     `gorm:"index;not null"`
	ModelID                string    `gorm:"not null;size:255;index"`
	ProviderCallID         string    `gorm:"size:255"`
	InputTokens            int64     `gorm:"not null"`
	OutputTokens           int64     `gorm:"not null"`
	InputPriceMicroCents   int64     `gorm:"not null"`
	OutputPriceMicroCents  int64     `gorm:"not null"`
	ProviderCostMicroCents int64     `gorm:"not null"`
	FeeMicroCents          int64     `gorm:"not null"`
	TotalChargeMicroCents  int64     `gorm:"not null"`
	ChargeTransactionID    int64     `gorm:"not null;default:0"`
	IdempotencyKey         string    `gorm:"size:255;index"`
	Status                 string    `gorm:"not null;size:50;index"`
	CreatedAt              time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for UsageLog
func (UsageLog) TableName() string {
	return "usage_logs"
}

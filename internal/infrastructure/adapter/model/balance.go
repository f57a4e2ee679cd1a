package model

import (
	"time"
)

// Balance represents the database model for user balances. Version is the
// optimistic-concurrency token: every successful mutation increments it and
// updates condition on the expected prior value.
type Balance struct {
	UserID             int64     `gorm:"primaryKey"`
	BalanceMicroCents  int64     `gorm:"not null;default:0"`
	ReservedMicroCents int64     `gorm:"not null;default:0"`
	Version            int64     `gorm:"not null;default:0"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName specifies the table name for Balance
func (Balance) TableName() string {
	return "balances"
}

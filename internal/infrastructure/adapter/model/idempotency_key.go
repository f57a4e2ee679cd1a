package model

import (
	"time"
)

// IdempotencyKey represents the database model for completed-operation
// records. The primary key on Key is the whole mechanism: racing writers
// are resolved by the unique constraint, not by locks.
type IdempotencyKey struct {
	Key             string    `gorm:"primaryKey;size:255"`
	OperationType   string    `gorm:"not null;size:50"`
	UserID          int64     `gorm:"not null;index"`
	ResultReference int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

package model

import (
	"time"
)

// BillingUser represents the database model for billing users
type BillingUser struct {
	ID                    int64     `gorm:"primaryKey"`
	ExternalID            string    `gorm:"uniqueIndex;not null;size:255"`
	Email                 string    `gorm:"size:255"`
	Name                  string    `gorm:"size:255"`
	ReceivedSignupCredit  bool      `gorm:"not null;default:false"`
	FirstPaidTopupApplied bool      `gorm:"not null;default:false"`
	Status                string    `gorm:"not null;size:50;default:active"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName specifies the table name for BillingUser
func (BillingUser) TableName() string {
	return "billing_users"
}

package model

import (
	"time"
)

// ModelTokenPrice represents the database model for the versioned price
// history. EffectiveTo is null on the currently open row; rows for one
// model never overlap.
type ModelTokenPrice struct {
	ID                    int64      `gorm:"primaryKey"`
	ModelID               string     `gorm:"not null;size:255;index:idx_price_model_from"`
	Provider              string     `gorm:"not null;size:100"`
	InputPriceMicroCents  int64      `gorm:"not null"`
	OutputPriceMicroCents int64      `gorm:"not null"`
	EffectiveFrom         time.Time  `gorm:"not null;index:idx_price_model_from"`
	EffectiveTo           *time.Time `gorm:"index"`
	AdminID               string     `gorm:"size:255"`
	Reason                string     `gorm:"type:text"`
	CreatedAt             time.Time  `gorm:"not null"`
}

// TableName specifies the table name for ModelTokenPrice
func (ModelTokenPrice) TableName() string {
	return "model_token_prices"
}

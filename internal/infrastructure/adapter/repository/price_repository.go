package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// PriceRepository implements persistence.PriceRepository using GORM
type PriceRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPriceRepository creates a new PriceRepository instance
func NewPriceRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *PriceRepository {
	return &PriceRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func priceToEntity(m *model.ModelTokenPrice) *entity.ModelTokenPrice {
	return &entity.ModelTokenPrice{
		ID:                    m.ID,
		ModelID:               m.ModelID,
		Provider:              m.Provider,
		InputPriceMicroCents:  m.InputPriceMicroCents,
		OutputPriceMicroCents: m.OutputPriceMicroCents,
		EffectiveFrom:         m.EffectiveFrom,
		EffectiveTo:           m.EffectiveTo,
		AdminID:               m.AdminID,
		Reason:                m.Reason,
	}
}

// FindActive returns the price row covering the instant
func (r *PriceRepository) FindActive(ctx context.Context, modelID string, at time.Time) (*entity.ModelTokenPrice, error) {
	var m model.ModelTokenPrice
	result := r.db.WithContext(ctx).
		Where("model_id = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", modelID, at, at).
		Order("effective_from DESC").
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.NewPricingError(modelID, at.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return priceToEntity(&m), nil
}

// CloseActive sets effective_to on the currently open row for the model
func (r *PriceRepository) CloseActive(ctx context.Context, modelID string, effectiveTo time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.ModelTokenPrice{}).
		Where("model_id = ? AND effective_to IS NULL", modelID).
		Update("effective_to", effectiveTo)
	if result.Error != nil {
		r.logger.Error("Database error when closing price row", map[string]any{
			"model_id": modelID,
			"error":    result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	// Zero rows affected just means this is the first price for the model.
	return nil
}

// Create inserts a new open-ended price row
func (r *PriceRepository) Create(ctx context.Context, price *entity.ModelTokenPrice) error {
	m := model.ModelTokenPrice{
		ID:                    price.ID,
		ModelID:               price.ModelID,
		Provider:              price.Provider,
		InputPriceMicroCents:  price.InputPriceMicroCents,
		OutputPriceMicroCents: price.OutputPriceMicroCents,
		EffectiveFrom:         price.EffectiveFrom,
		EffectiveTo:           price.EffectiveTo,
		AdminID:               price.AdminID,
		Reason:                price.Reason,
		CreatedAt:             r.timeProvider.Now(),
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Database error when creating price row", map[string]any{
			"model_id": price.ModelID,
			"error":    result.Error.Error(),
		})
		if r.errorClassifier.IsConstraintError(result.Error) {
			return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, result.Error.Error())
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// History returns all rows for a model ordered by effective_from
func (r *PriceRepository) History(ctx context.Context, modelID string) ([]*entity.ModelTokenPrice, error) {
	var rows []*model.ModelTokenPrice
	result := r.db.WithContext(ctx).
		Where("model_id = ?", modelID).
		Order("effective_from ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	prices := make([]*entity.ModelTokenPrice, 0, len(rows))
	for _, m := range rows {
		prices = append(prices, priceToEntity(m))
	}
	return prices, nil
}

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

// TopupRepository implements persistence.TopupRepository using GORM
type TopupRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTopupRepository creates a new TopupRepository instance
func NewTopupRepository(db *gorm.DB, logger coreport.Logger) *TopupRepository {
	return &TopupRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func topupToEntity(m *model.Topup) *entity.Topup {
	return &entity.Topup{
		ID:               m.ID,
		UserID:           m.UserID,
		AmountMicroCents: m.AmountMicroCents,
		BonusMicroCents:  m.BonusMicroCents,
		PaymentProvider:  m.PaymentProvider,
		PaymentReference: m.PaymentReference,
		Status:           entity.TopupStatus(m.Status),
		IdempotencyKey:   m.IdempotencyKey,
		CreatedAt:        m.CreatedAt,
	}
}

// Create inserts a topup row
func (r *TopupRepository) Create(ctx context.Context, topup *entity.Topup) error {
	m := model.Topup{
		ID:               topup.ID,
		UserID:           topup.UserID,
		AmountMicroCents: topup.AmountMicroCents,
		BonusMicroCents:  topup.BonusMicroCents,
		PaymentProvider:  topup.PaymentProvider,
		PaymentReference: topup.PaymentReference,
		Status:           string(topup.Status),
		IdempotencyKey:   topup.IdempotencyKey,
		CreatedAt:        topup.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Database error when creating topup", map[string]any{
			"topup_id": topup.ID,
			"user_id":  topup.UserID,
			"error":    result.Error.Error(),
		})
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return fmt.Errorf("%w: payment reference already recorded", errs.ErrConstraintViolation)
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// GetByID retrieves a topup by internal id
func (r *TopupRepository) GetByID(ctx context.Context, id int64) (*entity.Topup, error) {
	var m model.Topup
	result := r.db.WithContext(ctx).First(&m, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTopupNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return topupToEntity(&m), nil
}

// SumAmounts returns total topup and bonus micro-cents in a window
func (r *TopupRepository) SumAmounts(ctx context.Context, start, end time.Time) (int64, int64, error) {
	var sums struct {
		Amount int64
		Bonus  int64
	}
	result := r.db.WithContext(ctx).Model(&model.Topup{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Select("COALESCE(SUM(amount_micro_cents), 0) AS amount, COALESCE(SUM(bonus_micro_cents), 0) AS bonus").
		Scan(&sums)
	if result.Error != nil {
		return 0, 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return sums.Amount, sums.Bonus, nil
}

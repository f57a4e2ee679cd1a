package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// UsageLogRepository implements persistence.UsageLogRepository using GORM
type UsageLogRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUsageLogRepository creates a new UsageLogRepository instance
func NewUsageLogRepository(db *gorm.DB, logger coreport.Logger) *UsageLogRepository {
	return &UsageLogRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func usageLogToEntity(m *model.UsageLog) *entity.UsageLog {
	return &entity.UsageLog{
		ID:                     m.ID,
		UserID:                 m.UserID,
		ModelID:                m.ModelID,
		ProviderCallID:         m.ProviderCallID,
		InputTokens:            m.InputTokens,
		OutputTokens:           m.OutputTokens,
		InputPriceMicroCents:   m.InputPriceMicroCents,
		OutputPriceMicroCents:  m.OutputPriceMicroCents,
		ProviderCostMicroCents: m.ProviderCostMicroCents,
		FeeMicroCents:          m.FeeMicroCents,
		TotalChargeMicroCents:  m.TotalChargeMicroCents,
		ChargeTransactionID:    m.ChargeTransactionID,
		IdempotencyKey:         m.IdempotencyKey,
		Status:                 entity.UsageStatus(m.Status),
		CreatedAt:              m.CreatedAt,
	}
}

// Create inserts a usage log row
func (r *UsageLogRepository) Create(ctx context.Context, log *entity.UsageLog) error {
	m := model.UsageLog{
		ID:                     log.ID,
		UserID:                 log.UserID,
		ModelID:                log.ModelID,
		ProviderCallID:         log.ProviderCallID,
		InputTokens:            log.InputTokens,
		OutputTokens:           log.OutputTokens,
		InputPriceMicroCents:   log.InputPriceMicroCents,
		OutputPriceMicroCents:  log.OutputPriceMicroCents,
		ProviderCostMicroCents: log.ProviderCostMicroCents,
		FeeMicroCents:          log.FeeMicroCents,
		TotalChargeMicroCents:  log.TotalChargeMicroCents,
		ChargeTransactionID:    log.ChargeTransactionID,
		IdempotencyKey:         log.IdempotencyKey,
		Status:                 string(log.Status),
		CreatedAt:              log.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Database error when creating usage log", map[string]any{
			"usage_log_id": log.ID,
			"user_id":      log.UserID,
			"error":        result.Error.Error(),
		})
		if r.errorClassifier.IsConstraintError(result.Error) {
			return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, result.Error.Error())
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// GetByID retrieves a usage log by internal id
func (r *UsageLogRepository) GetByID(ctx context.Context, id int64) (*entity.UsageLog, error) {
	var m model.UsageLog
	result := r.db.WithContext(ctx).First(&m, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUsageLogNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return usageLogToEntity(&m), nil
}

// Aggregate computes call counts and cost sums for a window. Cost sums only
// count charged rows; failed attempts moved no money.
func (r *UsageLogRepository) Aggregate(ctx context.Context, start, end time.Time) (*persistence.UsageAggregates, error) {
	agg := &persistence.UsageAggregates{}
	window := r.db.WithContext(ctx).Model(&model.UsageLog{}).
		Where("created_at >= ? AND created_at < ?", start, end)

	if err := window.Session(&gorm.Session{}).Count(&agg.TotalCalls).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
	if err := window.Session(&gorm.Session{}).
		Where("status = ?", string(entity.UsageFailed)).
		Count(&agg.FailedCalls).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
	if err := window.Session(&gorm.Session{}).
		Distinct("user_id").
		Count(&agg.DistinctUsers).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	var sums struct {
		Cost int64
		Fee  int64
	}
	if err := window.Session(&gorm.Session{}).
		Where("status = ?", string(entity.UsageCharged)).
		Select("COALESCE(SUM(provider_cost_micro_cents), 0) AS cost, COALESCE(SUM(fee_micro_cents), 0) AS fee").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
	agg.ProviderCostMicroCents = sums.Cost
	agg.FeeMicroCents = sums.Fee

	return agg, nil
}

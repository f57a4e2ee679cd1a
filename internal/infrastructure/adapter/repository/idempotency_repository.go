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

// IdempotencyRepository implements persistence.IdempotencyRepository using GORM
type IdempotencyRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewIdempotencyRepository creates a new IdempotencyRepository instance
func NewIdempotencyRepository(db *gorm.DB, logger coreport.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Get returns the record for a key, or (nil, nil) when unseen
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	var m model.IdempotencyKey
	result := r.db.WithContext(ctx).First(&m, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Database error when reading idempotency key", map[string]any{
			"key":   key,
			"error": result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.IdempotencyRecord{
		Key:             m.Key,
		OperationType:   entity.OperationType(m.OperationType),
		UserID:          m.UserID,
		ResultReference: m.ResultReference,
		CreatedAt:       m.CreatedAt,
	}, nil
}

// Create inserts the record. A duplicate key means a concurrent caller won
// the race; the caller resolves it by replaying the winner's result.
func (r *IdempotencyRepository) Create(ctx context.Context, record *entity.IdempotencyRecord) error {
	m := model.IdempotencyKey{
		Key:             record.Key,
		OperationType:   string(record.OperationType),
		UserID:          record.UserID,
		ResultReference: record.ResultReference,
		CreatedAt:       record.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return errs.ErrDuplicateOperation
		}
		r.logger.Error("Database error when committing idempotency key", map[string]any{
			"key":   record.Key,
			"error": result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// PurgeOlderThan removes records created before the cutoff
func (r *IdempotencyRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.IdempotencyKey{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return result.RowsAffected, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// BalanceRepository implements persistence.BalanceRepository using GORM.
// There is no row locking anywhere in this file: the version column carries
// the entire concurrency story.
type BalanceRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewBalanceRepository creates a new BalanceRepository instance
func NewBalanceRepository(db *gorm.DB, logger coreport.Logger) *BalanceRepository {
	return &BalanceRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Get reads the current balance row, or the zero balance when no row exists
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*entity.Balance, error) {
	var m model.Balance
	result := r.db.WithContext(ctx).First(&m, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return entity.ZeroBalance(userID), nil
		}
		r.logger.Error("Database error when reading balance", map[string]any{
			"user_id": userID,
			"error":   result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.Balance{
		UserID:             m.UserID,
		BalanceMicroCents:  m.BalanceMicroCents,
		ReservedMicroCents: m.ReservedMicroCents,
		Version:            m.Version,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

// CompareAndSwap writes the successor balance. Version 1 inserts the first
// row; any other version updates conditioned on the stored version being
// exactly the predecessor. A zero-row update means another writer got there
// first and the caller must re-read and retry.
func (r *BalanceRepository) CompareAndSwap(ctx context.Context, next *entity.Balance) error {
	m := model.Balance{
		UserID:             next.UserID,
		BalanceMicroCents:  next.BalanceMicroCents,
		ReservedMicroCents: next.ReservedMicroCents,
		Version:            next.Version,
		UpdatedAt:          next.UpdatedAt,
	}

	if next.Version == 1 {
		result := r.db.WithContext(ctx).Create(&m)
		if result.Error != nil {
			if r.errorClassifier.IsDuplicateKeyError(result.Error) {
				// Another writer created the row since our read.
				return errs.ErrConcurrencyConflict
			}
			r.logger.Error("Database error when inserting balance", map[string]any{
				"user_id": next.UserID,
				"error":   result.Error.Error(),
			})
			return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
		}
		return nil
	}

	result := r.db.WithContext(ctx).Model(&model.Balance{}).
		Where("user_id = ? AND version = ?", next.UserID, next.Version-1).
		Updates(map[string]interface{}{
			"balance_micro_cents":  next.BalanceMicroCents,
			"reserved_micro_cents": next.ReservedMicroCents,
			"version":              next.Version,
			"updated_at":           next.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Error("Database error when updating balance", map[string]any{
			"user_id": next.UserID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrConcurrencyConflict
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalRepository implements persistence.JournalRepository using GORM
type JournalRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewJournalRepository creates a new JournalRepository instance
func NewJournalRepository(db *gorm.DB, logger coreport.Logger) *JournalRepository {
	return &JournalRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func entryToModel(e *entity.Transaction) *model.Transaction {
	return &model.Transaction{
		ID:                     e.ID,
		UserID:                 e.UserID,
		Type:                   string(e.Type),
		AmountMicroCents:       e.AmountMicroCents,
		ProviderCostMicroCents: e.ProviderCostMicroCents,
		FeeMicroCents:          e.FeeMicroCents,
		Provider:               e.Provider,
		ReferenceID:            e.ReferenceID,
		IdempotencyKey:         e.IdempotencyKey,
		Metadata:               datatypes.JSONMap(e.Metadata),
		CreatedAt:              e.CreatedAt,
	}
}

func modelToEntry(m *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:                     m.ID,
		UserID:                 m.UserID,
		Type:                   entity.TransactionType(m.Type),
		AmountMicroCents:       m.AmountMicroCents,
		ProviderCostMicroCents: m.ProviderCostMicroCents,
		FeeMicroCents:          m.FeeMicroCents,
		Provider:               m.Provider,
		ReferenceID:            m.ReferenceID,
		IdempotencyKey:         m.IdempotencyKey,
		Metadata:               map[string]any(m.Metadata),
		CreatedAt:              m.CreatedAt,
	}
}

// AppendPosting writes all entries of a posting in insertion order
func (r *JournalRepository) AppendPosting(ctx context.Context, posting *entity.Posting) error {
	entries := posting.Entries()
	rows := make([]*model.Transaction, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryToModel(e))
	}

	result := r.db.WithContext(ctx).Create(&rows)
	if result.Error != nil {
		r.logger.Error("Database error when appending posting", map[string]any{
			"entries": len(rows),
			"error":   result.Error.Error(),
		})
		if r.errorClassifier.IsConstraintError(result.Error) {
			return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, result.Error.Error())
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// SumByUser returns the running sum of a user's entries in micro-cents
func (r *JournalRepository) SumByUser(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_micro_cents), 0)").
		Scan(&sum)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return sum, nil
}

// ListByUser returns a user's entries, newest first
func (r *JournalRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Transaction, error) {
	var rows []*model.Transaction
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	entries := make([]*entity.Transaction, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, modelToEntry(m))
	}
	return entries, nil
}

// CountByTypeAndUser counts a user's entries of one type
func (r *JournalRepository) CountByTypeAndUser(ctx context.Context, userID int64, txType entity.TransactionType) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("user_id = ? AND type = ?", userID, string(txType)).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return count, nil
}

// SumProviderAccrual sums provider_payable_accrual entries in a window
func (r *JournalRepository) SumProviderAccrual(ctx context.Context, start, end time.Time, provider string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("type = ? AND created_at >= ? AND created_at < ?", string(entity.TxProviderPayableAccrual), start, end)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}

	var sum int64
	result := q.Select("COALESCE(SUM(amount_micro_cents), 0)").Scan(&sum)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return sum, nil
}

// Aggregate computes the reporting sums for a window
func (r *JournalRepository) Aggregate(ctx context.Context, start, end time.Time) (*persistence.JournalAggregates, error) {
	agg := &persistence.JournalAggregates{}
	sums := map[entity.TransactionType]*int64{
		entity.TxTopup:                  &agg.TopupMicroCents,
		entity.TxBonus:                  &agg.BonusMicroCents,
		entity.TxProviderPayableAccrual: &agg.ProviderCostMicroCents,
		entity.TxFeeRevenue:             &agg.FeeRevenueMicroCents,
		entity.TxAdminAdjust:            &agg.AdjustmentMicroCents,
	}

	for txType, dst := range sums {
		var sum int64
		result := r.db.WithContext(ctx).Model(&model.Transaction{}).
			Where("type = ? AND created_at >= ? AND created_at < ?", string(txType), start, end).
			Select("COALESCE(SUM(amount_micro_cents), 0)").
			Scan(&sum)
		if result.Error != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
		}
		*dst = sum
	}
	return agg, nil
}

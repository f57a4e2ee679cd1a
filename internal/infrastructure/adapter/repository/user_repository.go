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

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *UserRepository) modelToEntity(m *model.BillingUser) *entity.BillingUser {
	return &entity.BillingUser{
		ID:                    m.ID,
		ExternalID:            m.ExternalID,
		Email:                 m.Email,
		Name:                  m.Name,
		ReceivedSignupCredit:  m.ReceivedSignupCredit,
		FirstPaidTopupApplied: m.FirstPaidTopupApplied,
		Status:                entity.UserStatus(m.Status),
		CreatedAt:             m.CreatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *UserRepository) handleDatabaseError(operation string, err error, fields map[string]any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrUserNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), mergeFields(fields, map[string]any{
		"error": err.Error(),
	}))

	if r.errorClassifier.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", errs.ErrConstraintViolation, err.Error())
	}

	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// GetByID retrieves a billing user by internal id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.BillingUser, error) {
	var m model.BillingUser
	result := r.db.WithContext(ctx).First(&m, id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting user", result.Error, map[string]any{"user_id": id})
	}
	return r.modelToEntity(&m), nil
}

// GetByExternalID retrieves a billing user by external identity subject
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.BillingUser, error) {
	var m model.BillingUser
	result := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting user by external id", result.Error, map[string]any{"external_id": externalID})
	}
	return r.modelToEntity(&m), nil
}

// Create inserts a new billing user
func (r *UserRepository) Create(ctx context.Context, user *entity.BillingUser) error {
	m := model.BillingUser{
		ID:                    user.ID,
		ExternalID:            user.ExternalID,
		Email:                 user.Email,
		Name:                  user.Name,
		ReceivedSignupCredit:  user.ReceivedSignupCredit,
		FirstPaidTopupApplied: user.FirstPaidTopupApplied,
		Status:                string(user.Status),
		CreatedAt:             user.CreatedAt,
		UpdatedAt:             user.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		return r.handleDatabaseError("creating user", result.Error, map[string]any{
			"user_id":     user.ID,
			"external_id": user.ExternalID,
		})
	}

	r.logger.Info("Billing user created", map[string]any{
		"user_id":     user.ID,
		"external_id": user.ExternalID,
	})
	return nil
}

// SetSignupCreditReceived flips the signup credit flag to true
func (r *UserRepository) SetSignupCreditReceived(ctx context.Context, userID int64) error {
	return r.setFlag(ctx, userID, "received_signup_credit")
}

// SetFirstPaidTopupApplied flips the first-topup bonus flag to true
func (r *UserRepository) SetFirstPaidTopupApplied(ctx context.Context, userID int64) error {
	return r.setFlag(ctx, userID, "first_paid_topup_applied")
}

// setFlag performs the monotone false-to-true update of a user flag column
func (r *UserRepository) setFlag(ctx context.Context, userID int64, column string) error {
	result := r.db.WithContext(ctx).Model(&model.BillingUser{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			column:       true,
			"updated_at": r.timeProvider.Now(),
		})
	if result.Error != nil {
		return r.handleDatabaseError("setting user flag", result.Error, map[string]any{
			"user_id": userID,
			"flag":    column,
		})
	}
	if result.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

// mergeFields combines two log field maps, the second taking precedence
func mergeFields(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

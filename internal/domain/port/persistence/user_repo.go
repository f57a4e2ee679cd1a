package persistence

import (
	"context"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// UserRepository defines essential methods to interact with billing users
type UserRepository interface {
	// GetByID retrieves a billing user by internal id
	//
	// Possible errors:
	// - ErrUserNotFound: If no user with this id exists
	// - ErrDatabaseConnection: If the database is unreachable
	GetByID(ctx context.Context, id int64) (*entity.BillingUser, error)

	// GetByExternalID retrieves a billing user by external identity subject
	//
	// Possible errors:
	// - ErrUserNotFound: If no user for this subject exists
	// - ErrDatabaseConnection: If the database is unreachable
	GetByExternalID(ctx context.Context, externalID string) (*entity.BillingUser, error)

	// Create inserts a new billing user
	//
	// Possible errors:
	// - ErrConstraintViolation: If a user with the same external id exists
	// - ErrDatabaseConnection: If the database is unreachable
	Create(ctx context.Context, user *entity.BillingUser) error

	// SetSignupCreditReceived flips the signup credit flag to true.
	// The flag is monotone, so the update is a no-op if already set.
	SetSignupCreditReceived(ctx context.Context, userID int64) error

	// SetFirstPaidTopupApplied flips the first-topup bonus flag to true.
	// The flag is monotone, so the update is a no-op if already set.
	SetFirstPaidTopupApplied(ctx context.Context, userID int64) error
}

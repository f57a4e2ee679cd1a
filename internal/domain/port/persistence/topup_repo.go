package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// TopupRepository persists applied topups.
type TopupRepository interface {
	// Create inserts a topup row.
	//
	// Possible errors:
	// - ErrConstraintViolation: If the payment reference was already recorded
	// - ErrDatabaseConnection: If the database is unreachable
	Create(ctx context.Context, topup *entity.Topup) error

	// GetByID retrieves a topup by internal id.
	//
	// Possible errors:
	// - ErrTopupNotFound: If no topup with this id exists
	GetByID(ctx context.Context, id int64) (*entity.Topup, error)

	// SumAmounts returns total topup and bonus micro-cents in a window.
	SumAmounts(ctx context.Context, start, end time.Time) (amountMicro, bonusMicro int64, err error)
}

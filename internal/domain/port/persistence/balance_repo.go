package persistence

import (
	"context"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// BalanceRepository is the balance store. There is no lock operation: the
// version check at write time is the only concurrency control.
type BalanceRepository interface {
	// Get reads the current balance row, or the default zero balance at
	// version 0 when no row exists yet.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If the database is unreachable
	Get(ctx context.Context, userID int64) (*entity.Balance, error)

	// CompareAndSwap writes next, which the caller derived from a snapshot
	// via Balance.WithDelta. For next.Version == 1 it inserts the first row;
	// otherwise it updates the row only if the stored version is exactly
	// next.Version - 1.
	//
	// Possible errors:
	// - ErrConcurrencyConflict: If the stored version moved since the read
	//   (or the first-write insert raced another first write)
	// - ErrDatabaseConnection: If the database is unreachable
	CompareAndSwap(ctx context.Context, next *entity.Balance) error
}

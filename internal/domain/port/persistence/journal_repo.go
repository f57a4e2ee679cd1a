package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// JournalAggregates summarizes ledger activity for a reporting window.
type JournalAggregates struct {
	TopupMicroCents        int64
	BonusMicroCents        int64
	ProviderCostMicroCents int64
	FeeRevenueMicroCents   int64
	AdjustmentMicroCents   int64
}

// JournalRepository is the append-only transaction journal. There is no
// update or delete operation.
type JournalRepository interface {
	// AppendPosting writes all entries of a posting. Callers run it inside
	// a unit of work so the posting lands atomically with the balance write.
	//
	// Possible errors:
	// - ErrConstraintViolation: If an entry violates schema constraints
	// - ErrDatabaseConnection: If the database is unreachable
	AppendPosting(ctx context.Context, posting *entity.Posting) error

	// SumByUser returns the running sum of a user's entries in micro-cents.
	// It must equal the user's current balance at every point in time.
	SumByUser(ctx context.Context, userID int64) (int64, error)

	// ListByUser returns a user's entries, newest first, capped at limit.
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.Transaction, error)

	// CountByTypeAndUser counts a user's entries of one type. Used to verify
	// the single-bonus invariant and by tests.
	CountByTypeAndUser(ctx context.Context, userID int64, txType entity.TransactionType) (int64, error)

	// SumProviderAccrual sums provider_payable_accrual entries in a window,
	// optionally filtered by provider. Reconciliation input.
	SumProviderAccrual(ctx context.Context, start, end time.Time, provider string) (int64, error)

	// Aggregate computes the reporting sums for a window.
	Aggregate(ctx context.Context, start, end time.Time) (*JournalAggregates, error)
}

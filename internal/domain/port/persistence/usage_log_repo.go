package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// UsageAggregates summarizes metered calls for a reporting window.
type UsageAggregates struct {
	TotalCalls             int64
	FailedCalls            int64
	DistinctUsers          int64
	ProviderCostMicroCents int64
	FeeMicroCents          int64
}

// UsageLogRepository persists metered call attempts, charged or denied.
type UsageLogRepository interface {
	// Create inserts a usage log row.
	//
	// Possible errors:
	// - ErrConstraintViolation: If the row violates schema constraints
	// - ErrDatabaseConnection: If the database is unreachable
	Create(ctx context.Context, log *entity.UsageLog) error

	// GetByID retrieves a usage log by internal id.
	//
	// Possible errors:
	// - ErrUsageLogNotFound: If no log with this id exists
	GetByID(ctx context.Context, id int64) (*entity.UsageLog, error)

	// Aggregate computes call counts and cost sums for a window. Counts
	// charged and failed attempts; failed rows carry no journal entries.
	Aggregate(ctx context.Context, start, end time.Time) (*UsageAggregates, error)
}

package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// IdempotencyRepository stores completed-operation records keyed by the
// caller-supplied idempotency key. The key column carries a uniqueness
// constraint; racing writers are resolved by the database, not by
// application-level locking.
type IdempotencyRepository interface {
	// Get returns the record for a key, or (nil, nil) when unseen.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If the database is unreachable
	Get(ctx context.Context, key string) (*entity.IdempotencyRecord, error)

	// Create inserts the record. Called exactly once per key, inside the
	// same unit of work as the operation's side effects.
	//
	// Possible errors:
	// - ErrDuplicateOperation: If a concurrent caller committed the key first
	// - ErrDatabaseConnection: If the database is unreachable
	Create(ctx context.Context, record *entity.IdempotencyRecord) error

	// PurgeOlderThan removes records created before the cutoff. Retention is
	// a deliberate trade-off: long enough for delayed webhook retries, short
	// enough to bound storage.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

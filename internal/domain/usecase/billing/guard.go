package billing

import (
	"context"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
)

// priorRecord looks up an idempotency key before an operation runs. An empty
// key disables deduplication entirely: every call is treated as new. A found
// record short-circuits the operation; the caller reconstructs the original
// response from the referenced entity plus the current balance.
func (s *Service) priorRecord(ctx context.Context, key string, op entity.OperationType) (*entity.IdempotencyRecord, error) {
	if key == "" {
		return nil, nil
	}

	rec, err := s.uow.Idempotency(ctx).Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if rec.OperationType != op {
		// Same key reused across operation types; honor the stored record
		// but flag it, this usually means a caller-side key derivation bug.
		s.logger.Warn("Idempotency key reused for a different operation type", map[string]any{
			"key":         key,
			"stored_type": string(rec.OperationType),
			"called_type": string(op),
		})
	}

	s.metrics.IdempotentReplay(string(op))
	return rec, nil
}

// commitKey records the completed operation inside the current unit of work.
// Must be called before the unit commits, never after.
func commitKey(
	ctx context.Context,
	idem persistence.IdempotencyRepository,
	key string,
	op entity.OperationType,
	userID, resultRef int64,
	timeProvider coreport.TimeProvider,
) error {
	if key == "" {
		return nil
	}
	return idem.Create(ctx, &entity.IdempotencyRecord{
		Key:             key,
		OperationType:   op,
		UserID:          userID,
		ResultReference: resultRef,
		CreatedAt:       timeProvider.Now(),
	})
}

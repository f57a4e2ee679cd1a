package billing

import (
	"context"
	"errors"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// runGuarded executes a balance-mutating unit of work with the engine's two
// standard recovery paths:
//
//   - a version-race (ErrConcurrencyConflict) rolls the unit back and
//     restarts it from scratch, with a fresh balance read, up to
//     MaxCASRetries times;
//   - an idempotency-key collision (ErrDuplicateOperation) means a
//     concurrent caller with the same key won; the caller's replay function
//     reconstructs that winner's result.
//
// Every restart re-runs the whole atomic unit; a stale balance snapshot is
// never blindly re-applied.
func (s *Service) runGuarded(
	ctx context.Context,
	operation string,
	userID int64,
	attempt func(txCtx context.Context) error,
	replay func(ctx context.Context) error,
) error {
	var lastErr error

	for i := 0; i < s.cfg.MaxCASRetries; i++ {
		err := s.withTx(ctx, attempt)
		if err == nil {
			return nil
		}

		if errors.Is(err, errs.ErrDuplicateOperation) && replay != nil {
			s.metrics.IdempotentReplay(operation)
			s.logger.Info("Idempotency key committed by concurrent caller, replaying", map[string]any{
				"operation": operation,
				"user_id":   userID,
			})
			return replay(ctx)
		}

		if !errors.Is(err, errs.ErrConcurrencyConflict) {
			return err
		}

		lastErr = err
		s.metrics.CASConflict(operation)
		s.logger.Warn("Balance version conflict, restarting operation", map[string]any{
			"operation": operation,
			"user_id":   userID,
			"attempt":   i + 1,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.logger.Error("Balance version conflict retries exhausted", map[string]any{
		"operation": operation,
		"user_id":   userID,
		"attempts":  s.cfg.MaxCASRetries,
		"error":     lastErr.Error(),
	})
	return errs.NewConcurrencyConflictError(userID, s.cfg.MaxCASRetries)
}

package billing

import "context"

// PurgeExpiredIdempotencyKeys removes idempotency records older than the
// configured retention window. Callers run this periodically; a short replay
// of an already-expired key re-executes the operation, which is acceptable
// beyond the retention horizon.
func (s *Service) PurgeExpiredIdempotencyKeys(ctx context.Context) (int64, error) {
	cutoff := s.timeProvider.Now().Add(-s.cfg.IdempotencyRetention)
	purged, err := s.uow.Idempotency(ctx).PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("Idempotency keys purged", map[string]any{
			"purged": purged,
			"cutoff": cutoff,
		})
	}
	return purged, nil
}

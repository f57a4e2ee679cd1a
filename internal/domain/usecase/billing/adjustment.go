package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// AdjustmentResult reports a manual balance correction.
type AdjustmentResult struct {
	TransactionID        int64
	UserID               int64
	DeltaMicroCents      int64
	NewBalanceMicroCents int64
	Replayed             bool
}

// ApplyBalanceAdjustment posts a signed manual correction against a user's
// balance. A negative delta that would take the balance below zero is
// rejected; the non-negativity invariant holds for adjustments too.
func (s *Service) ApplyBalanceAdjustment(
	ctx context.Context,
	ref entity.UserRef,
	deltaMicro int64,
	adminID, reason, idemKey string,
) (*AdjustmentResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if deltaMicro == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must be non-zero", errs.ErrNegativeAmount)
	}
	if strings.TrimSpace(adminID) == "" || strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: admin id and reason are required", errs.ErrInvalidReference)
	}
	magnitude := deltaMicro
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if err := entity.ValidateAmountMicro(magnitude, s.cfg.MaxAmountCents); err != nil {
		return nil, err
	}

	if rec, err := s.priorRecord(ctx, idemKey, entity.OpAdminAdjust); err != nil {
		return nil, err
	} else if rec != nil {
		return s.replayAdjustment(ctx, rec)
	}

	var result *AdjustmentResult

	attempt := func(txCtx context.Context) error {
		user, err := s.resolveUser(txCtx, ref)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		balances := s.uow.Balances(txCtx)
		balance, err := balances.Get(txCtx, user.ID)
		if err != nil {
			return err
		}
		next, err := balance.WithDelta(deltaMicro, now)
		if err != nil {
			return err
		}
		if err := balances.CompareAndSwap(txCtx, next); err != nil {
			return err
		}

		adjustTx := &entity.Transaction{
			ID:               s.idGen.NextID(),
			UserID:           user.ID,
			Type:             entity.TxAdminAdjust,
			AmountMicroCents: deltaMicro,
			IdempotencyKey:   idemKey,
			Metadata: map[string]any{
				"admin_id": adminID,
				"reason":   reason,
			},
			CreatedAt: now,
		}
		posting, err := entity.NewPosting(adjustTx)
		if err != nil {
			return err
		}
		if err := s.uow.Journal(txCtx).AppendPosting(txCtx, posting); err != nil {
			return err
		}

		if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpAdminAdjust, user.ID, adjustTx.ID, s.timeProvider); err != nil {
			return err
		}

		result = &AdjustmentResult{
			TransactionID:        adjustTx.ID,
			UserID:               user.ID,
			DeltaMicroCents:      deltaMicro,
			NewBalanceMicroCents: next.BalanceMicroCents,
		}
		return nil
	}

	replay := func(ctx context.Context) error {
		rec, err := s.uow.Idempotency(ctx).Get(ctx, idemKey)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: idempotency key vanished after collision", errs.ErrInternalServer)
		}
		result, err = s.replayAdjustment(ctx, rec)
		return err
	}

	if err := s.runGuarded(ctx, string(entity.OpAdminAdjust), 0, attempt, replay); err != nil {
		return nil, err
	}

	s.logger.Info("Balance adjustment applied", map[string]any{
		"transaction_id": result.TransactionID,
		"user_id":        result.UserID,
		"delta_micro":    result.DeltaMicroCents,
		"balance_micro":  result.NewBalanceMicroCents,
		"replayed":       result.Replayed,
	})
	return result, nil
}

func (s *Service) replayAdjustment(ctx context.Context, rec *entity.IdempotencyRecord) (*AdjustmentResult, error) {
	balance, err := s.uow.Balances(ctx).Get(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	return &AdjustmentResult{
		TransactionID:        rec.ResultReference,
		UserID:               rec.UserID,
		NewBalanceMicroCents: balance.BalanceMicroCents,
		Replayed:             true,
	}, nil
}

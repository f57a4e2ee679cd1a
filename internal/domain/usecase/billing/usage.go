package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// ChargeResult is the outcome of finalizing a metered call. A denial for
// insufficient funds is a normal terminal outcome (Charged == false), not an
// error.
type ChargeResult struct {
	Charged                bool
	UsageLogID             int64
	UserID                 int64
	ProviderCostMicroCents int64
	FeeMicroCents          int64
	TotalMicroCents        int64
	BalanceMicroCents      int64
	Replayed               bool
}

// FinalizeUsageCharge converts actual token counts into a provider cost plus
// platform fee and debits the balance. The affordability check and the debit
// are protected by the balance version: if another mutation slips in between
// them, the CAS fails and the whole charge restarts from a fresh read.
// On insufficient funds only a failed usage log and the idempotency key are
// written; the journal and balance stay untouched.
func (s *Service) FinalizeUsageCharge(
	ctx context.Context,
	ref entity.UserRef,
	modelID, providerCallID string,
	inputTokens, outputTokens int64,
	idemKey string,
) (*ChargeResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if inputTokens < 0 || outputTokens < 0 {
		return nil, errs.ErrInvalidTokenCount
	}

	if rec, err := s.priorRecord(ctx, idemKey, entity.OpUsageCharge); err != nil {
		return nil, err
	} else if rec != nil {
		return s.replayCharge(ctx, rec)
	}

	// Pricing is resolved before any balance access; a missing price rejects
	// the call outright rather than billing it at zero.
	price, err := s.uow.Prices(ctx).FindActive(ctx, modelID, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	var result *ChargeResult

	attempt := func(txCtx context.Context) error {
		user, err := s.resolveUser(txCtx, ref)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		usage, err := entity.NewUsageLog(
			s.idGen.NextID(), user.ID,
			modelID, providerCallID,
			inputTokens, outputTokens,
			price, s.cfg.FeeBps, idemKey, now,
		)
		if err != nil {
			return err
		}

		balances := s.uow.Balances(txCtx)
		balance, err := balances.Get(txCtx, user.ID)
		if err != nil {
			return err
		}

		if balance.BalanceMicroCents < usage.TotalChargeMicroCents {
			usage.MarkFailed()
			if err := s.uow.UsageLogs(txCtx).Create(txCtx, usage); err != nil {
				return err
			}
			if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpUsageCharge, user.ID, usage.ID, s.timeProvider); err != nil {
				return err
			}
			result = &ChargeResult{
				Charged:                false,
				UsageLogID:             usage.ID,
				UserID:                 user.ID,
				ProviderCostMicroCents: usage.ProviderCostMicroCents,
				FeeMicroCents:          usage.FeeMicroCents,
				TotalMicroCents:        usage.TotalChargeMicroCents,
				BalanceMicroCents:      balance.BalanceMicroCents,
			}
			return nil
		}

		next, err := balance.WithDelta(-usage.TotalChargeMicroCents, now)
		if err != nil {
			return err
		}
		if err := balances.CompareAndSwap(txCtx, next); err != nil {
			return err
		}

		// Double-entry decomposition of the charge: the user debit, the
		// provider payable, and the platform fee revenue, all or nothing.
		chargeTx := &entity.Transaction{
			ID:                     s.idGen.NextID(),
			UserID:                 user.ID,
			Type:                   entity.TxModelCharge,
			AmountMicroCents:       -usage.TotalChargeMicroCents,
			ProviderCostMicroCents: usage.ProviderCostMicroCents,
			FeeMicroCents:          usage.FeeMicroCents,
			ReferenceID:            usage.ID,
			IdempotencyKey:         idemKey,
			CreatedAt:              now,
		}
		posting, err := entity.NewPosting(
			chargeTx,
			&entity.Transaction{
				ID:               s.idGen.NextID(),
				Type:             entity.TxProviderPayableAccrual,
				AmountMicroCents: usage.ProviderCostMicroCents,
				Provider:         price.Provider,
				ReferenceID:      usage.ID,
				CreatedAt:        now,
			},
			&entity.Transaction{
				ID:               s.idGen.NextID(),
				Type:             entity.TxFeeRevenue,
				AmountMicroCents: usage.FeeMicroCents,
				ReferenceID:      usage.ID,
				CreatedAt:        now,
			},
		)
		if err != nil {
			return err
		}
		if err := s.uow.Journal(txCtx).AppendPosting(txCtx, posting); err != nil {
			return err
		}

		usage.MarkCharged(chargeTx.ID)
		if err := s.uow.UsageLogs(txCtx).Create(txCtx, usage); err != nil {
			return err
		}

		if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpUsageCharge, user.ID, usage.ID, s.timeProvider); err != nil {
			return err
		}

		result = &ChargeResult{
			Charged:                true,
			UsageLogID:             usage.ID,
			UserID:                 user.ID,
			ProviderCostMicroCents: usage.ProviderCostMicroCents,
			FeeMicroCents:          usage.FeeMicroCents,
			TotalMicroCents:        usage.TotalChargeMicroCents,
			BalanceMicroCents:      next.BalanceMicroCents,
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
		result, err = s.replayCharge(ctx, rec)
		return err
	}

	if err := s.runGuarded(ctx, string(entity.OpUsageCharge), 0, attempt, replay); err != nil {
		return nil, err
	}

	if !result.Replayed {
		s.metrics.ChargeFinalized(result.Charged, result.TotalMicroCents)
	}
	s.logger.Info("Usage charge finalized", map[string]any{
		"usage_log_id":  result.UsageLogID,
		"user_id":       result.UserID,
		"model_id":      modelID,
		"charged":       result.Charged,
		"total_micro":   result.TotalMicroCents,
		"balance_micro": result.BalanceMicroCents,
		"replayed":      result.Replayed,
	})
	return result, nil
}

// replayCharge rebuilds the charge response from the stored usage log plus
// the current balance.
func (s *Service) replayCharge(ctx context.Context, rec *entity.IdempotencyRecord) (*ChargeResult, error) {
	usage, err := s.uow.UsageLogs(ctx).GetByID(ctx, rec.ResultReference)
	if err != nil {
		return nil, err
	}
	balance, err := s.uow.Balances(ctx).Get(ctx, usage.UserID)
	if err != nil {
		return nil, err
	}
	return &ChargeResult{
		Charged:                usage.Status == entity.UsageCharged,
		UsageLogID:             usage.ID,
		UserID:                 usage.UserID,
		ProviderCostMicroCents: usage.ProviderCostMicroCents,
		FeeMicroCents:          usage.FeeMicroCents,
		TotalMicroCents:        usage.TotalChargeMicroCents,
		BalanceMicroCents:      balance.BalanceMicroCents,
		Replayed:               true,
	}, nil
}

// BalanceCheckResult is the advisory outcome of a pre-flight estimate.
type BalanceCheckResult struct {
	HasSufficientBalance     bool
	EstimatedCostMicroCents  int64
	CurrentBalanceMicroCents int64
}

// CheckSufficientBalance estimates the cost of a call and compares it to the
// current balance. Read-only and advisory: the authoritative enforcement is
// FinalizeUsageCharge.
func (s *Service) CheckSufficientBalance(
	ctx context.Context,
	ref entity.UserRef,
	modelID string,
	estimatedInputTokens, estimatedOutputTokens int64,
) (*BalanceCheckResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if estimatedInputTokens < 0 || estimatedOutputTokens < 0 {
		return nil, errs.ErrInvalidTokenCount
	}

	price, err := s.uow.Prices(ctx).FindActive(ctx, modelID, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, ref)
	if err != nil {
		return nil, err
	}
	balance, err := s.uow.Balances(ctx).Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	providerCost := estimatedInputTokens*price.InputPriceMicroCents + estimatedOutputTokens*price.OutputPriceMicroCents
	estimated := providerCost + entity.BpsOf(providerCost, s.cfg.FeeBps)

	return &BalanceCheckResult{
		HasSufficientBalance:     balance.BalanceMicroCents >= estimated,
		EstimatedCostMicroCents:  estimated,
		CurrentBalanceMicroCents: balance.BalanceMicroCents,
	}, nil
}

// GetBalance returns the current balance for a user reference. Read-only.
func (s *Service) GetBalance(ctx context.Context, ref entity.UserRef) (*entity.Balance, error) {
	user, err := s.resolveUser(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.uow.Balances(ctx).Get(ctx, user.ID)
}

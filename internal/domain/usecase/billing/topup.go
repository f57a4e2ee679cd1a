package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// TopupResult is the outcome of applying a confirmed external payment.
type TopupResult struct {
	TopupID              int64
	UserID               int64
	AmountMicroCents     int64
	BonusMicroCents      int64
	NewBalanceMicroCents int64
	Replayed             bool
}

// ApplyTopup credits a confirmed provider payment to the user's balance.
// The first paid topup additionally earns the one-time bonus. Journal
// entries, the balance CAS, the topup row, the user flag and the key commit
// are one atomic unit; a partial failure can never leave the bonus flag set
// without the matching credit.
func (s *Service) ApplyTopup(
	ctx context.Context,
	ref entity.UserRef,
	amountMicro int64,
	provider, paymentRef, idemKey string,
) (*TopupResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(paymentRef) == "" {
		return nil, errs.ErrInvalidReference
	}
	if err := entity.ValidateAmountMicro(amountMicro, s.cfg.MaxAmountCents); err != nil {
		return nil, err
	}

	if rec, err := s.priorRecord(ctx, idemKey, entity.OpTopup); err != nil {
		return nil, err
	} else if rec != nil {
		return s.replayTopup(ctx, rec)
	}

	var result *TopupResult

	attempt := func(txCtx context.Context) error {
		user, err := s.resolveOrProvisionUser(txCtx, ref)
		if err != nil {
			return err
		}

		bonusMicro := int64(0)
		if amountMicro > 0 && !user.FirstPaidTopupApplied {
			bonusMicro = entity.FirstTopupBonus(amountMicro, s.cfg.BonusPercent, s.cfg.BonusCapCents)
		}

		now := s.timeProvider.Now()
		topup, err := entity.NewTopup(s.idGen.NextID(), user.ID, amountMicro, provider, paymentRef, idemKey, now)
		if err != nil {
			return err
		}
		topup.BonusMicroCents = bonusMicro

		entries := []*entity.Transaction{{
			ID:               s.idGen.NextID(),
			UserID:           user.ID,
			Type:             entity.TxTopup,
			AmountMicroCents: amountMicro,
			Provider:         provider,
			ReferenceID:      topup.ID,
			IdempotencyKey:   idemKey,
			CreatedAt:        now,
		}}
		if bonusMicro > 0 {
			entries = append(entries, &entity.Transaction{
				ID:               s.idGen.NextID(),
				UserID:           user.ID,
				Type:             entity.TxBonus,
				AmountMicroCents: bonusMicro,
				ReferenceID:      topup.ID,
				IdempotencyKey:   idemKey,
				CreatedAt:        now,
			})
		}
		posting, err := entity.NewPosting(entries...)
		if err != nil {
			return err
		}

		balances := s.uow.Balances(txCtx)
		balance, err := balances.Get(txCtx, user.ID)
		if err != nil {
			return err
		}
		next, err := balance.WithDelta(amountMicro+bonusMicro, now)
		if err != nil {
			return err
		}
		if err := balances.CompareAndSwap(txCtx, next); err != nil {
			return err
		}

		if err := s.uow.Journal(txCtx).AppendPosting(txCtx, posting); err != nil {
			return err
		}
		if err := s.uow.Topups(txCtx).Create(txCtx, topup); err != nil {
			return err
		}
		if bonusMicro > 0 {
			if err := s.uow.Users(txCtx).SetFirstPaidTopupApplied(txCtx, user.ID); err != nil {
				return err
			}
		}

		if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpTopup, user.ID, topup.ID, s.timeProvider); err != nil {
			return err
		}

		result = &TopupResult{
			TopupID:              topup.ID,
			UserID:               user.ID,
			AmountMicroCents:     amountMicro,
			BonusMicroCents:      bonusMicro,
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
		result, err = s.replayTopup(ctx, rec)
		return err
	}

	if err := s.runGuarded(ctx, string(entity.OpTopup), 0, attempt, replay); err != nil {
		return nil, err
	}

	if !result.Replayed {
		s.metrics.TopupApplied(result.AmountMicroCents, result.BonusMicroCents)
	}
	s.logger.Info("Topup applied", map[string]any{
		"topup_id":      result.TopupID,
		"user_id":       result.UserID,
		"amount_micro":  result.AmountMicroCents,
		"bonus_micro":   result.BonusMicroCents,
		"balance_micro": result.NewBalanceMicroCents,
		"provider":      provider,
		"replayed":      result.Replayed,
	})
	return result, nil
}

// replayTopup rebuilds the topup response from the stored topup row plus the
// current balance.
func (s *Service) replayTopup(ctx context.Context, rec *entity.IdempotencyRecord) (*TopupResult, error) {
	topup, err := s.uow.Topups(ctx).GetByID(ctx, rec.ResultReference)
	if err != nil {
		return nil, err
	}
	balance, err := s.uow.Balances(ctx).Get(ctx, topup.UserID)
	if err != nil {
		return nil, err
	}
	return &TopupResult{
		TopupID:              topup.ID,
		UserID:               topup.UserID,
		AmountMicroCents:     topup.AmountMicroCents,
		BonusMicroCents:      topup.BonusMicroCents,
		NewBalanceMicroCents: balance.BalanceMicroCents,
		Replayed:             true,
	}, nil
}

// resolveOrProvisionUser resolves a user reference, creating the billing
// user on the fly for an unseen external identity. Webhook deliveries can
// land before the signup path ever ran.
func (s *Service) resolveOrProvisionUser(ctx context.Context, ref entity.UserRef) (*entity.BillingUser, error) {
	user, err := s.resolveUser(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, errs.ErrUserNotFound) || ref.Kind != entity.RefExternal {
		return nil, err
	}

	user, err = entity.NewBillingUser(s.idGen.NextID(), ref.ExternalID, "", "", s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

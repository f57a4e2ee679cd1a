package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// SignupResult is the outcome of a signup credit grant.
type SignupResult struct {
	UserID              int64
	BalanceMicroCents   int64
	CreditedMicroCents  int64
	Replayed            bool
}

// CreateUserWithSignupCredit resolves (or creates) the billing user for an
// external identity and grants the fixed signup credit exactly once per
// identity. The grant, its journal entry, the user flag and the idempotency
// key commit in one unit of work.
func (s *Service) CreateUserWithSignupCredit(
	ctx context.Context,
	externalID, email, name string,
	idemKey string,
) (*SignupResult, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, errs.ErrInvalidUserRef
	}

	if rec, err := s.priorRecord(ctx, idemKey, entity.OpSignupCredit); err != nil {
		return nil, err
	} else if rec != nil {
		return s.replaySignup(ctx, rec)
	}

	creditMicro := entity.CentsToMicro(s.cfg.SignupCreditCents)
	var result *SignupResult

	attempt := func(txCtx context.Context) error {
		users := s.uow.Users(txCtx)

		user, err := users.GetByExternalID(txCtx, externalID)
		if errors.Is(err, errs.ErrUserNotFound) {
			user, err = entity.NewBillingUser(s.idGen.NextID(), externalID, email, name, s.timeProvider)
			if err != nil {
				return err
			}
			if err := users.Create(txCtx, user); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		balances := s.uow.Balances(txCtx)
		balance, err := balances.Get(txCtx, user.ID)
		if err != nil {
			return err
		}

		if user.ReceivedSignupCredit {
			// Identity already credited under another key; record this key
			// against the user so later retries still short-circuit.
			if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpSignupCredit, user.ID, user.ID, s.timeProvider); err != nil {
				return err
			}
			result = &SignupResult{UserID: user.ID, BalanceMicroCents: balance.BalanceMicroCents}
			return nil
		}

		next, err := balance.WithDelta(creditMicro, s.timeProvider.Now())
		if err != nil {
			return err
		}
		if err := balances.CompareAndSwap(txCtx, next); err != nil {
			return err
		}

		posting, err := entity.NewPosting(&entity.Transaction{
			ID:               s.idGen.NextID(),
			UserID:           user.ID,
			Type:             entity.TxSignupCredit,
			AmountMicroCents: creditMicro,
			ReferenceID:      user.ID,
			IdempotencyKey:   idemKey,
			CreatedAt:        s.timeProvider.Now(),
		})
		if err != nil {
			return err
		}
		if err := s.uow.Journal(txCtx).AppendPosting(txCtx, posting); err != nil {
			return err
		}

		if err := users.SetSignupCreditReceived(txCtx, user.ID); err != nil {
			return err
		}

		if err := commitKey(txCtx, s.uow.Idempotency(txCtx), idemKey, entity.OpSignupCredit, user.ID, user.ID, s.timeProvider); err != nil {
			return err
		}

		result = &SignupResult{
			UserID:             user.ID,
			BalanceMicroCents:  next.BalanceMicroCents,
			CreditedMicroCents: creditMicro,
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
		result, err = s.replaySignup(ctx, rec)
		return err
	}

	if err := s.runGuarded(ctx, string(entity.OpSignupCredit), 0, attempt, replay); err != nil {
		return nil, err
	}

	s.logger.Info("Signup credit processed", map[string]any{
		"user_id":        result.UserID,
		"credited_micro": result.CreditedMicroCents,
		"balance_micro":  result.BalanceMicroCents,
	})
	return result, nil
}

// replaySignup rebuilds the signup response from the stored record and the
// current balance.
func (s *Service) replaySignup(ctx context.Context, rec *entity.IdempotencyRecord) (*SignupResult, error) {
	balance, err := s.uow.Balances(ctx).Get(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	return &SignupResult{
		UserID:            rec.UserID,
		BalanceMicroCents: balance.BalanceMicroCents,
		Replayed:          true,
	}, nil
}

// resolveUser maps a tagged user reference to the billing user row.
func (s *Service) resolveUser(ctx context.Context, ref entity.UserRef) (*entity.BillingUser, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	switch ref.Kind {
	case entity.RefInternal:
		return s.uow.Users(ctx).GetByID(ctx, ref.InternalID)
	default:
		return s.uow.Users(ctx).GetByExternalID(ctx, ref.ExternalID)
	}
}

package entity

import (
	"strings"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// TopupStatus defines terminal states of a topup
type TopupStatus string

const (
	// TopupApplied means the payment was credited to the balance
	TopupApplied TopupStatus = "applied"
)

// Topup records one confirmed external payment applied as a balance credit.
// The engine never collects money itself; it accepts the provider's
// confirmation (payment reference) and applies it exactly once.
type Topup struct {
	ID               int64
	UserID           int64
	AmountMicroCents int64
	BonusMicroCents  int64
	PaymentProvider  string
	PaymentReference string
	Status           TopupStatus
	IdempotencyKey   string
	CreatedAt        time.Time
}

// NewTopup validates and builds a topup row in the applied state.
func NewTopup(id, userID, amountMicro int64, provider, paymentRef, idemKey string, now time.Time) (*Topup, error) {
	if userID <= 0 {
		return nil, errs.ErrInvalidUserRef
	}
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(paymentRef) == "" {
		return nil, errs.ErrInvalidReference
	}
	if amountMicro < 0 {
		return nil, errs.ErrNegativeAmount
	}

	return &Topup{
		ID:               id,
		UserID:           userID,
		AmountMicroCents: amountMicro,
		PaymentProvider:  provider,
		PaymentReference: paymentRef,
		Status:           TopupApplied,
		IdempotencyKey:   idemKey,
		CreatedAt:        now,
	}, nil
}

// FirstTopupBonus computes the one-time bonus for the first paid topup:
// percent of the amount with half-up rounding, capped at capCents.
// Returns zero for zero-amount topups.
func FirstTopupBonus(amountMicro, bonusPercent, capCents int64) int64 {
	if amountMicro <= 0 {
		return 0
	}
	bonus := PercentOf(amountMicro, bonusPercent)
	if capMicro := CentsToMicro(capCents); bonus > capMicro {
		return capMicro
	}
	return bonus
}

package entity

import (
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// Balance is the single mutable monetary record per user. Every write goes
// through the balance store's compare-and-swap: the version read before the
// mutation must still match at write time, and each successful write bumps
// it by exactly one.
type Balance struct {
	UserID             int64
	BalanceMicroCents  int64
	ReservedMicroCents int64
	Version            int64
	UpdatedAt          time.Time
}

// ZeroBalance returns the default balance for a user that has never had a
// balance-affecting event. Version 0 means "no row yet"; the first CAS write
// creates the row at version 1.
func ZeroBalance(userID int64) *Balance {
	return &Balance{UserID: userID}
}

// WithDelta computes the successor balance for a delta. The non-negativity
// invariant is enforced here against the snapshot the caller read, and again
// implicitly through the CAS because a concurrent mutation forces a re-read.
func (b *Balance) WithDelta(deltaMicro int64, now time.Time) (*Balance, error) {
	next := b.BalanceMicroCents + deltaMicro
	if next < 0 {
		return nil, errs.NewInsufficientFundsError(b.UserID, -deltaMicro, b.BalanceMicroCents)
	}

	return &Balance{
		UserID:             b.UserID,
		BalanceMicroCents:  next,
		ReservedMicroCents: b.ReservedMicroCents,
		Version:            b.Version + 1,
		UpdatedAt:          now,
	}, nil
}

// Available returns the spendable amount: balance minus holds.
func (b *Balance) Available() int64 {
	return b.BalanceMicroCents - b.ReservedMicroCents
}

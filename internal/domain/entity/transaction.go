package entity

import (
	"fmt"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// TransactionType classifies a journal entry
type TransactionType string

// Transaction types
const (
	TxSignupCredit           TransactionType = "signup_credit"
	TxTopup                  TransactionType = "topup"
	TxBonus                  TransactionType = "bonus"
	TxModelCharge            TransactionType = "model_charge"
	TxProviderPayableAccrual TransactionType = "provider_payable_accrual"
	TxFeeRevenue             TransactionType = "fee_revenue"
	TxAdminAdjust            TransactionType = "admin_adjust"
)

// IsValidTransactionType validates if the transaction type is allowed
func IsValidTransactionType(t TransactionType) bool {
	switch t {
	case TxSignupCredit, TxTopup, TxBonus, TxModelCharge,
		TxProviderPayableAccrual, TxFeeRevenue, TxAdminAdjust:
		return true
	}
	return false
}

// Transaction is an immutable journal entry: one monetary movement, signed
// in micro-cents (positive = credit, negative = debit). Entries are never
// updated or deleted; the journal is the reconciliation ground truth, and
// summing a user's entries must always equal their current balance.
type Transaction struct {
	ID int64

	// UserID is zero for platform-level entries (provider payable accrual,
	// fee revenue) that are not owned by any user.
	UserID int64

	Type             TransactionType
	AmountMicroCents int64

	// Optional breakdown for model_charge entries.
	ProviderCostMicroCents int64
	FeeMicroCents          int64

	// Provider is set on provider_payable_accrual entries so reconciliation
	// can window by payment/LLM provider.
	Provider string

	// ReferenceID correlates the entry to a Topup or UsageLog id.
	ReferenceID    int64
	IdempotencyKey string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// IsPlatformEntry reports whether this entry belongs to the platform rather
// than a user.
func (t *Transaction) IsPlatformEntry() bool {
	return t.UserID == 0
}

// Posting is the atomic double-entry decomposition of one economic event.
// All of its entries are written together or not at all.
type Posting struct {
	entries []*Transaction
}

// NewPosting creates a posting from one or more journal entries.
func NewPosting(entries ...*Transaction) (*Posting, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: posting requires at least one entry", errs.ErrConstraintViolation)
	}
	for _, e := range entries {
		if !IsValidTransactionType(e.Type) {
			return nil, fmt.Errorf("%w: unknown transaction type %q", errs.ErrConstraintViolation, e.Type)
		}
	}
	return &Posting{entries: entries}, nil
}

// Entries returns the entries in insertion order.
func (p *Posting) Entries() []*Transaction {
	return p.entries
}

// UserDelta sums the user-owned movement of the posting, the amount the
// owning user's balance must change by when the posting lands.
func (p *Posting) UserDelta(userID int64) int64 {
	var sum int64
	for _, e := range p.entries {
		if e.UserID == userID {
			sum += e.AmountMicroCents
		}
	}
	return sum
}

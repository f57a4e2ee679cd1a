package entity

import (
	"strings"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// UsageStatus defines terminal states of a metered call attempt
type UsageStatus string

const (
	// UsageCharged means the balance was debited for the call
	UsageCharged UsageStatus = "charged"
	// UsageFailed means the call was denied for insufficient funds;
	// the row is kept as an audit trail of the denial
	UsageFailed UsageStatus = "failed"
)

// UsageLog records one metered model call attempt, charged or denied, with
// the price rates that were in effect so the charge can be re-derived later.
type UsageLog struct {
	ID                     int64
	UserID                 int64
	ModelID                string
	ProviderCallID         string
	InputTokens            int64
	OutputTokens           int64
	InputPriceMicroCents   int64
	OutputPriceMicroCents  int64
	ProviderCostMicroCents int64
	FeeMicroCents          int64
	TotalChargeMicroCents  int64

	// ChargeTransactionID is zero when the call was denied.
	ChargeTransactionID int64
	IdempotencyKey      string
	Status              UsageStatus
	CreatedAt           time.Time
}

// NewUsageLog validates inputs and builds a usage log with computed amounts.
// The cost arithmetic is exact integer multiplication; token counts are
// whole numbers, so no rounding is involved until the fee.
func NewUsageLog(
	id, userID int64,
	modelID, providerCallID string,
	inputTokens, outputTokens int64,
	price *ModelTokenPrice,
	feeBps int64,
	idemKey string,
	now time.Time,
) (*UsageLog, error) {
	if userID <= 0 {
		return nil, errs.ErrInvalidUserRef
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if inputTokens < 0 || outputTokens < 0 {
		return nil, errs.ErrInvalidTokenCount
	}

	providerCost := inputTokens*price.InputPriceMicroCents + outputTokens*price.OutputPriceMicroCents
	fee := BpsOf(providerCost, feeBps)

	return &UsageLog{
		ID:                     id,
		UserID:                 userID,
		ModelID:                modelID,
		ProviderCallID:         providerCallID,
		InputTokens:            inputTokens,
		OutputTokens:           outputTokens,
		InputPriceMicroCents:   price.InputPriceMicroCents,
		OutputPriceMicroCents:  price.OutputPriceMicroCents,
		ProviderCostMicroCents: providerCost,
		FeeMicroCents:          fee,
		TotalChargeMicroCents:  providerCost + fee,
		IdempotencyKey:         idemKey,
		CreatedAt:              now,
	}, nil
}

// MarkCharged finalizes the log as a successful debit.
func (l *UsageLog) MarkCharged(chargeTransactionID int64) {
	l.Status = UsageCharged
	l.ChargeTransactionID = chargeTransactionID
}

// MarkFailed finalizes the log as denied for insufficient funds.
func (l *UsageLog) MarkFailed() {
	l.Status = UsageFailed
	l.ChargeTransactionID = 0
}

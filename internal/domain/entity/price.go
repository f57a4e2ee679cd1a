package entity

import (
	"strings"
	"time"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// ModelTokenPrice is one row of the versioned, time-ranged price history for
// a model. Rows for the same model never overlap: setting a new price closes
// the previous row at the instant before the new one takes effect. History
// is append-only; closed rows are kept, never deleted.
type ModelTokenPrice struct {
	ID                    int64
	ModelID               string
	Provider              string
	InputPriceMicroCents  int64
	OutputPriceMicroCents int64
	EffectiveFrom         time.Time

	// EffectiveTo is nil while the row is the currently active price.
	EffectiveTo *time.Time

	AdminID string
	Reason  string
}

// NewModelTokenPrice validates and builds an open-ended price row.
// A blended single price is stored by passing the same value for both rates.
func NewModelTokenPrice(
	id int64,
	modelID, provider string,
	inputPriceMicro, outputPriceMicro int64,
	effectiveFrom time.Time,
	adminID, reason string,
) (*ModelTokenPrice, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if inputPriceMicro < 0 || outputPriceMicro < 0 {
		return nil, errs.ErrNegativeAmount
	}

	return &ModelTokenPrice{
		ID:                    id,
		ModelID:               modelID,
		Provider:              provider,
		InputPriceMicroCents:  inputPriceMicro,
		OutputPriceMicroCents: outputPriceMicro,
		EffectiveFrom:         effectiveFrom,
		AdminID:               adminID,
		Reason:                reason,
	}, nil
}

// ActiveAt reports whether the row covers the given instant.
func (p *ModelTokenPrice) ActiveAt(at time.Time) bool {
	if at.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || !at.After(*p.EffectiveTo)
}

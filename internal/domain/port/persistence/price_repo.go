package persistence

import (
	"context"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
)

// PriceRepository persists the append-only model price history.
type PriceRepository interface {
	// FindActive returns the price row covering the instant, or
	// ErrPricingNotConfigured when none does. There is no fallback price.
	FindActive(ctx context.Context, modelID string, at time.Time) (*entity.ModelTokenPrice, error)

	// CloseActive sets effective_to on the currently open row for the model,
	// if any. Runs inside the same unit of work as the following Create so a
	// reader never observes two open rows or a gap.
	CloseActive(ctx context.Context, modelID string, effectiveTo time.Time) error

	// Create inserts a new open-ended price row.
	Create(ctx context.Context, price *entity.ModelTokenPrice) error

	// History returns all rows for a model ordered by effective_from.
	History(ctx context.Context, modelID string) ([]*entity.ModelTokenPrice, error)
}

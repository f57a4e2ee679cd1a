package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
)

// Catalog manages the versioned per-model token price history. Price rows
// are append-only: an update closes the open row and inserts a new one, so
// historical charges stay explainable against the row that priced them.
type Catalog struct {
	uow          persistence.UnitOfWork
	idGen        coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewCatalog creates the pricing catalog service.
func NewCatalog(
	uow persistence.UnitOfWork,
	idGen coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Catalog {
	return &Catalog{
		uow:          uow,
		idGen:        idGen,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// SetPrice installs a new price version for a model, effective from the given
// instant (or now when zero). The previous open row is closed one microsecond
// before the new row opens; close and insert share one unit of work so the
// history never shows an overlap or a gap.
func (c *Catalog) SetPrice(
	ctx context.Context,
	modelID, provider string,
	inputPriceMicro, outputPriceMicro int64,
	effectiveFrom time.Time,
	adminID, reason string,
) (*entity.ModelTokenPrice, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if strings.TrimSpace(provider) == "" {
		return nil, fmt.Errorf("%w: provider is required", errs.ErrInvalidReference)
	}
	if inputPriceMicro < 0 || outputPriceMicro < 0 {
		return nil, errs.ErrNegativeAmount
	}
	if effectiveFrom.IsZero() {
		effectiveFrom = c.timeProvider.Now()
	}

	price, err := entity.NewModelTokenPrice(
		c.idGen.NextID(),
		modelID, provider,
		inputPriceMicro, outputPriceMicro,
		effectiveFrom, adminID, reason,
	)
	if err != nil {
		return nil, err
	}

	txCtx, err := c.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	prices := c.uow.Prices(txCtx)
	if err := prices.CloseActive(txCtx, modelID, effectiveFrom.Add(-time.Microsecond)); err != nil {
		_ = c.uow.Rollback(txCtx)
		return nil, err
	}
	if err := prices.Create(txCtx, price); err != nil {
		_ = c.uow.Rollback(txCtx)
		return nil, err
	}
	if err := c.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	c.logger.Info("Model price set", map[string]any{
		"model_id":       modelID,
		"provider":       provider,
		"input_micro":    inputPriceMicro,
		"output_micro":   outputPriceMicro,
		"effective_from": effectiveFrom,
		"admin_id":       adminID,
	})
	return price, nil
}

// SetBlendedPrice installs a single per-token rate applied to both input and
// output tokens. Convenience wrapper over SetPrice.
func (c *Catalog) SetBlendedPrice(
	ctx context.Context,
	modelID, provider string,
	priceMicro int64,
	effectiveFrom time.Time,
	adminID, reason string,
) (*entity.ModelTokenPrice, error) {
	return c.SetPrice(ctx, modelID, provider, priceMicro, priceMicro, effectiveFrom, adminID, reason)
}

// ActivePrice returns the price row covering the instant (now when zero).
func (c *Catalog) ActivePrice(ctx context.Context, modelID string, at time.Time) (*entity.ModelTokenPrice, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	if at.IsZero() {
		at = c.timeProvider.Now()
	}
	return c.uow.Prices(ctx).FindActive(ctx, modelID, at)
}

// PriceHistory returns all price rows for a model ordered by effective_from.
func (c *Catalog) PriceHistory(ctx context.Context, modelID string) ([]*entity.ModelTokenPrice, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errs.ErrInvalidModelID
	}
	return c.uow.Prices(ctx).History(ctx, modelID)
}

package database

import (
	"context"
	"fmt"
	"strings"

	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// UnitOfWork implements the unit of work pattern over a gorm transaction
// stored in the context. Repositories obtained through it see the
// transaction when one is open and the base connection otherwise, so
// read-only paths skip transaction overhead.
type UnitOfWork struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) persistence.UnitOfWork {
	return &UnitOfWork{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Begin starts a new database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the current transaction
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	err := tx.Rollback().Error

	// A transaction already finished by Commit shows up here when the
	// caller rolls back unconditionally on error paths.
	if err != nil && strings.Contains(err.Error(), "already been committed or rolled back") {
		u.logger.Warn("Transaction has already been committed or rolled back", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if err != nil {
		u.logger.Error("Failed to rollback transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// Users returns a user repository bound to the current transaction
func (u *UnitOfWork) Users(ctx context.Context) persistence.UserRepository {
	return repository.NewUserRepository(u.getDbFromContext(ctx), u.timeProvider, u.logger)
}

// Balances returns a balance repository bound to the current transaction
func (u *UnitOfWork) Balances(ctx context.Context) persistence.BalanceRepository {
	return repository.NewBalanceRepository(u.getDbFromContext(ctx), u.logger)
}

// Journal returns a journal repository bound to the current transaction
func (u *UnitOfWork) Journal(ctx context.Context) persistence.JournalRepository {
	return repository.NewJournalRepository(u.getDbFromContext(ctx), u.logger)
}

// Idempotency returns an idempotency repository bound to the current transaction
func (u *UnitOfWork) Idempotency(ctx context.Context) persistence.IdempotencyRepository {
	return repository.NewIdempotencyRepository(u.getDbFromContext(ctx), u.logger)
}

// Topups returns a topup repository bound to the current transaction
func (u *UnitOfWork) Topups(ctx context.Context) persistence.TopupRepository {
	return repository.NewTopupRepository(u.getDbFromContext(ctx), u.logger)
}

// UsageLogs returns a usage log repository bound to the current transaction
func (u *UnitOfWork) UsageLogs(ctx context.Context) persistence.UsageLogRepository {
	return repository.NewUsageLogRepository(u.getDbFromContext(ctx), u.logger)
}

// Prices returns a price repository bound to the current transaction
func (u *UnitOfWork) Prices(ctx context.Context) persistence.PriceRepository {
	return repository.NewPriceRepository(u.getDbFromContext(ctx), u.timeProvider, u.logger)
}

// Invoices returns an invoice repository bound to the current transaction
func (u *UnitOfWork) Invoices(ctx context.Context) persistence.InvoiceRepository {
	return repository.NewInvoiceRepository(u.getDbFromContext(ctx), u.logger)
}

// getDbFromContext retrieves the transactional handle from context, falling
// back to the base connection
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}

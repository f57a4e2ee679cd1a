package persistence

import (
	"context"
)

// UnitOfWork coordinates writes across repositories so that a balance
// mutation, its journal posting, the reference row and the idempotency key
// commit land in one atomic database transaction. A crash between "mutate"
// and "commit key" is therefore impossible to observe.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// Users returns a user repository bound to the current transaction
	Users(ctx context.Context) UserRepository

	// Balances returns a balance repository bound to the current transaction
	Balances(ctx context.Context) BalanceRepository

	// Journal returns a journal repository bound to the current transaction
	Journal(ctx context.Context) JournalRepository

	// Idempotency returns an idempotency repository bound to the current transaction
	Idempotency(ctx context.Context) IdempotencyRepository

	// Topups returns a topup repository bound to the current transaction
	Topups(ctx context.Context) TopupRepository

	// UsageLogs returns a usage log repository bound to the current transaction
	UsageLogs(ctx context.Context) UsageLogRepository

	// Prices returns a price repository bound to the current transaction
	Prices(ctx context.Context) PriceRepository

	// Invoices returns an invoice repository bound to the current transaction
	Invoices(ctx context.Context) InvoiceRepository
}

package billing

import (
	"context"

	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/port/persistence"
)

// Recorder receives billing events for operational metrics. The prometheus
// adapter implements it; NopRecorder is used where metrics don't matter.
type Recorder interface {
	TopupApplied(amountMicro, bonusMicro int64)
	ChargeFinalized(charged bool, totalMicro int64)
	CASConflict(operation string)
	IdempotentReplay(operation string)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) TopupApplied(int64, int64)   {}
func (NopRecorder) ChargeFinalized(bool, int64) {}
func (NopRecorder) CASConflict(string)          {}
func (NopRecorder) IdempotentReplay(string)     {}

// Service is the billing engine's mutating surface: signup credit, topups,
// usage charges, balance checks, and admin adjustments. Every mutating
// operation is idempotency-guarded and commits its side effects in one unit
// of work.
type Service struct {
	cfg          Config
	uow          persistence.UnitOfWork
	idGen        coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      Recorder
}

// NewService creates the billing service.
func NewService(
	cfg Config,
	uow persistence.UnitOfWork,
	idGen coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	metrics Recorder,
) *Service {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Service{
		cfg:          cfg,
		uow:          uow,
		idGen:        idGen,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
	}
}

// withTx runs fn inside a unit of work, committing on success and rolling
// back on any error.
func (s *Service) withTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Error("Rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return err
	}

	return s.uow.Commit(txCtx)
}

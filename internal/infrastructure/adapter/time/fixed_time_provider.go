package time

import (
	"context"
	"sync"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/port/core"
)

// FixedTimeProvider pins the clock for tests. Advance moves it forward
// explicitly; Sleep advances the clock instead of blocking.
type FixedTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedTimeProvider creates a time provider pinned at the given instant
func NewFixedTimeProvider(now time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: now}
}

// Now returns the pinned time
func (p *FixedTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Since returns the elapsed time against the pinned clock
func (p *FixedTimeProvider) Since(t time.Time) time.Duration {
	return p.Now().Sub(t)
}

// Sleep advances the pinned clock without blocking
func (p *FixedTimeProvider) Sleep(d time.Duration) {
	p.Advance(d)
}

// WithTimeout returns a real timeout context; tests that need cancellation
// still get one
func (p *FixedTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Advance moves the pinned clock forward
func (p *FixedTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

var _ core.TimeProvider = (*FixedTimeProvider)(nil)

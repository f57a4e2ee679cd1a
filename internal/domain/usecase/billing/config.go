package billing

import "time"

// Config carries every billing rate and limit. Rates are injected at
// construction time instead of living as package-level constants so tests
// and rollouts can swap them without code changes.
type Config struct {
	// SignupCreditCents is granted once per external identity.
	SignupCreditCents int64

	// BonusPercent and BonusCapCents define the one-time first-topup bonus:
	// BonusPercent percent of the topup amount, half-up, capped.
	BonusPercent  int64
	BonusCapCents int64

	// FeeBps is the platform fee in basis points applied on top of the
	// provider cost of a metered call. 1400 = 14%.
	FeeBps int64

	// MaxAmountCents bounds any single amount crossing the API boundary.
	MaxAmountCents int64

	// MaxCASRetries bounds how often a balance-mutating operation restarts
	// after losing the version race before surfacing a conflict.
	MaxCASRetries int

	// IdempotencyRetention is how long committed idempotency keys are kept
	// before the janitor purges them.
	IdempotencyRetention time.Duration
}

// DefaultConfig returns the production billing rates.
func DefaultConfig() Config {
	return Config{
		SignupCreditCents:    200,
		BonusPercent:         20,
		BonusCapCents:        500,
		FeeBps:               1400,
		MaxAmountCents:       100_000_000,
		MaxCASRetries:        3,
		IdempotencyRetention: 90 * 24 * time.Hour,
	}
}

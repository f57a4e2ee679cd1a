package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics implements the billing Recorder interface over prometheus
// collectors. Monetary observations are exported in cents to keep the
// series readable on dashboards.
type BillingMetrics struct {
	topupsTotal       prometheus.Counter
	topupAmountCents  prometheus.Counter
	bonusAmountCents  prometheus.Counter
	chargesTotal      *prometheus.CounterVec
	chargeAmountCents prometheus.Counter
	casConflicts      *prometheus.CounterVec
	idempotentReplays *prometheus.CounterVec
}

// NewBillingMetrics creates and registers the billing collectors
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	m := &BillingMetrics{
		topupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_topups_total",
			Help: "Number of applied topups.",
		}),
		topupAmountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_topup_amount_cents_total",
			Help: "Total topup amount in cents.",
		}),
		bonusAmountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_bonus_amount_cents_total",
			Help: "Total first-topup bonus amount in cents.",
		}),
		chargesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_usage_charges_total",
			Help: "Number of finalized usage charges by outcome.",
		}, []string{"outcome"}),
		chargeAmountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_charge_amount_cents_total",
			Help: "Total charged amount in cents.",
		}),
		casConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_cas_conflicts_total",
			Help: "Balance version conflicts by operation.",
		}, []string{"operation"}),
		idempotentReplays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_idempotent_replays_total",
			Help: "Requests answered from a prior idempotency record by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		m.topupsTotal,
		m.topupAmountCents,
		m.bonusAmountCents,
		m.chargesTotal,
		m.chargeAmountCents,
		m.casConflicts,
		m.idempotentReplays,
	)
	return m
}

// TopupApplied records an applied topup
func (m *BillingMetrics) TopupApplied(amountMicro, bonusMicro int64) {
	m.topupsTotal.Inc()
	m.topupAmountCents.Add(float64(amountMicro) / 1_000_000)
	if bonusMicro > 0 {
		m.bonusAmountCents.Add(float64(bonusMicro) / 1_000_000)
	}
}

// ChargeFinalized records a finalized usage charge
func (m *BillingMetrics) ChargeFinalized(charged bool, totalMicro int64) {
	outcome := "charged"
	if !charged {
		outcome = "insufficient_funds"
	}
	m.chargesTotal.WithLabelValues(outcome).Inc()
	if charged {
		m.chargeAmountCents.Add(float64(totalMicro) / 1_000_000)
	}
}

// CASConflict records a lost balance version race
func (m *BillingMetrics) CASConflict(operation string) {
	m.casConflicts.WithLabelValues(operation).Inc()
}

// IdempotentReplay records a request resolved from a prior record
func (m *BillingMetrics) IdempotentReplay(operation string) {
	m.idempotentReplays.WithLabelValues(operation).Inc()
}

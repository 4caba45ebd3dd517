package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event outcomes reported by the reconciler.
const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// SettlementMetrics tracks webhook reconciliation and ledger health.
type SettlementMetrics struct {
	events       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	floors       *prometheus.CounterVec
	withdrawals  *prometheus.CounterVec
	optimisticRe prometheus.Counter
}

// NewSettlementMetrics registers the settlement collectors. A nil registerer
// yields a no-op recorder.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	m := &SettlementMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Processor events by type and outcome.",
		}, []string{"type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent reconciling a processor event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		floors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_floor_applied_total",
			Help:      "Debits clamped at zero, by balance field.",
		}, []string{"field"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_processed_total",
			Help:      "Withdrawal decisions by result.",
		}, []string{"result"}),
		optimisticRe: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_version_conflicts_total",
			Help:      "Seller balance writes retried after a version conflict.",
		}),
	}
	reg.MustRegister(m.events, m.duration, m.floors, m.withdrawals, m.optimisticRe)
	return m
}

func (m *SettlementMetrics) ObserveEvent(eventType, outcome string, took time.Duration) {
	if m == nil || m.events == nil {
		return
	}
	eventType = normalizeLabel(eventType)
	m.events.WithLabelValues(eventType, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(eventType).Observe(took.Seconds())
}

func (m *SettlementMetrics) IncFloorApplied(field string) {
	if m == nil || m.floors == nil {
		return
	}
	m.floors.WithLabelValues(normalizeLabel(field)).Inc()
}

func (m *SettlementMetrics) IncWithdrawal(result string) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *SettlementMetrics) IncVersionConflict() {
	if m == nil || m.optimisticRe == nil {
		return
	}
	m.optimisticRe.Inc()
}

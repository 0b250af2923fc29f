package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations, persistence failures and reconciliation outcomes.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil registerer yields
// a recorder whose methods are no-ops.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart store mutations by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Best-effort cart writes that failed, by storage slot.",
	}, []string{"slot"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_pending_add_reconciliations_total",
		Help: "Pending-add reconciliation runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mutations, persistFailures, reconciliations)
	return &CartMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		reconciliations: reconciliations,
	}
}

func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncPersistFailure(slot string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(slot)).Inc()
}

func (c *CartMetrics) IncReconciliation(outcome string) {
	if c == nil || c.reconciliations == nil {
		return
	}
	c.reconciliations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

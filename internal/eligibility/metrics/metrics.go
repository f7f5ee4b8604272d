package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility evaluation.
type Metrics struct {
	// Evaluations by entry path (sync/async) and outcome
	Evaluations *prometheus.CounterVec

	// Requests answered from an existing evaluation
	IdempotentHits prometheus.Counter

	// Inserts that lost the journey id race
	InsertConflicts prometheus.Counter

	EvaluateLatency prometheus.Histogram

	// Reference data cache lookups by kind and result (hit, miss, fallback)
	RefdataCache *prometheus.CounterVec

	// Delay confirmations handled by result (evaluated, malformed, failed)
	DelayConfirmations *prometheus.CounterVec
}

// New registers the eligibility metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the eligibility metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "railrepay_eligibility_evaluations_total",
			Help: "Total eligibility evaluations created by path and outcome",
		}, []string{"path", "outcome"}),

		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "railrepay_eligibility_idempotent_hits_total",
			Help: "Evaluation requests answered from an existing record",
		}),

		InsertConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "railrepay_eligibility_insert_conflicts_total",
			Help: "Evaluation inserts that lost a concurrent race for the same journey",
		}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "railrepay_eligibility_evaluate_duration_seconds",
			Help:    "Duration of a full evaluation including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RefdataCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "railrepay_eligibility_refdata_cache_total",
			Help: "Reference data cache lookups by kind and result",
		}, []string{"kind", "result"}),

		DelayConfirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "railrepay_eligibility_delay_confirmations_total",
			Help: "Delay confirmation messages handled by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementEvaluation(path, outcome string) {
	if m != nil {
		m.Evaluations.WithLabelValues(path, outcome).Inc()
	}
}

func (m *Metrics) IncrementIdempotentHit() {
	if m != nil {
		m.IdempotentHits.Inc()
	}
}

func (m *Metrics) IncrementInsertConflict() {
	if m != nil {
		m.InsertConflicts.Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCache(kind, result string) {
	if m != nil {
		m.RefdataCache.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) IncrementDelayConfirmation(result string) {
	if m != nil {
		m.DelayConfirmations.WithLabelValues(result).Inc()
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordAgainstRegistry(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementEvaluation("sync", "eligible")
	m.IncrementEvaluation("sync", "eligible")
	m.IncrementIdempotentHit()
	m.IncrementCache("rulepack", "hit")
	m.ObserveEvaluateLatency(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("sync", "eligible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefdataCache.WithLabelValues("rulepack", "hit")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementEvaluation("async", "ineligible")
		m.IncrementInsertConflict()
		m.IncrementDelayConfirmation("malformed")
		m.ObserveEvaluateLatency(time.Second)
	})
}

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// evaluationsTotal tracks evaluations by resulting severity
	evaluationsTotal *prometheus.CounterVec

	// evaluationDuration tracks latency of full entry evaluations
	evaluationDuration prometheus.Histogram

	// flagsTotal tracks triggered rule flags by message
	flagsTotal *prometheus.CounterVec

	// reputationLookupsTotal tracks reputation lookups by outcome
	reputationLookupsTotal *prometheus.CounterVec
)

// Init registers all Prometheus metrics for the evaluation engine.
// This should be called once at application startup.
func Init() {
	metricsOnce.Do(func() {
		evaluationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraud_evaluations_total",
				Help: "Total number of entry evaluations by severity",
			},
			[]string{"severity"},
		)

		evaluationDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fraud_evaluation_duration_seconds",
				Help:    "Duration of entry evaluations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		)

		flagsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraud_flags_total",
				Help: "Total number of triggered rule flags by message",
			},
			[]string{"flag"},
		)

		reputationLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraud_reputation_lookups_total",
				Help: "Total number of IP reputation lookups by outcome",
			},
			[]string{"outcome"},
		)
	})
}

// RecordEvaluation records a completed evaluation with its severity.
func RecordEvaluation(severity string) {
	if evaluationsTotal != nil {
		evaluationsTotal.WithLabelValues(severity).Inc()
	}
}

// RecordFlag records a triggered rule flag.
func RecordFlag(flag string) {
	if flagsTotal != nil {
		flagsTotal.WithLabelValues(flag).Inc()
	}
}

// RecordLookup records a reputation lookup outcome.
// outcome: "cache_hit", "negative_cache_hit", "fetched", "failed"
func RecordLookup(outcome string) {
	if reputationLookupsTotal != nil {
		reputationLookupsTotal.WithLabelValues(outcome).Inc()
	}
}

// Timer is a helper for timing evaluations.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer for measuring evaluation duration.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started.
func (t *Timer) ObserveDuration() {
	if t != nil && evaluationDuration != nil {
		evaluationDuration.Observe(time.Since(t.start).Seconds())
	}
}

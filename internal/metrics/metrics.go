// Package metrics exposes prometheus instrumentation for the detection
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records detection pipeline metrics on a private registry.
// A nil *Collector is valid and records nothing, so instrumentation can
// be optional in tests and one-shot CLI runs.
type Collector struct {
	registry                *prometheus.Registry
	transactionsScored      prometheus.Counter
	anomaliesFlagged        *prometheus.CounterVec
	transactionsQuarantined prometheus.Counter
	modelTrainings          prometheus.Counter
	scoreDistribution       prometheus.Histogram
	trainingDuration        prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transactionsScored: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "biguard_transactions_scored_total",
			Help: "Total number of transactions scored",
		}),
		anomaliesFlagged: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "biguard_anomalies_flagged_total",
			Help: "Total number of transactions flagged as anomalous",
		}, []string{"severity"}),
		transactionsQuarantined: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "biguard_transactions_quarantined_total",
			Help: "Total number of transactions moved to quarantine",
		}),
		modelTrainings: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "biguard_model_trainings_total",
			Help: "Total number of completed model trainings",
		}),
		scoreDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "biguard_anomaly_score_distribution",
			Help:    "Distribution of composite anomaly scores",
			Buckets: []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 4.0, 5.0},
		}),
		trainingDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "biguard_model_training_duration_seconds",
			Help:    "Time taken to train a risk model",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordScore records one scored transaction and its composite score.
func (c *Collector) RecordScore(score float64) {
	if c == nil {
		return
	}
	c.transactionsScored.Inc()
	c.scoreDistribution.Observe(score)
}

// RecordFlagged records a transaction flagged at the given severity.
func (c *Collector) RecordFlagged(severity string) {
	if c == nil {
		return
	}
	c.anomaliesFlagged.WithLabelValues(severity).Inc()
}

// RecordQuarantine records a completed quarantine.
func (c *Collector) RecordQuarantine() {
	if c == nil {
		return
	}
	c.transactionsQuarantined.Inc()
}

// RecordTraining records a completed model training.
func (c *Collector) RecordTraining(duration time.Duration) {
	if c == nil {
		return
	}
	c.modelTrainings.Inc()
	c.trainingDuration.Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Package metrics exposes ingest and extraction counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/records-ingest/constants"
)

// Metrics holds the collectors of one process.
//
// Metrics:
//   - records_outcomes_total{category,outcome} - files by final outcome
//   - records_extract_duration_seconds{category} - decode, extract and store time per file
//   - records_queue_depth - jobs waiting in the processor queue
type Metrics struct {
	Outcomes       *prometheus.CounterVec
	ExtractSeconds *prometheus.HistogramVec
	QueueDepth     prometheus.Gauge
}

// New registers the collectors on reg. Passing a fresh registry per test
// avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_outcomes_total",
				Help: "Processed files by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		ExtractSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "records_extract_duration_seconds",
				Help:    "Time spent decoding, extracting and storing one file",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"category"},
		),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "records_queue_depth",
			Help: "Jobs waiting in the processor queue",
		}),
	}
}

// Observe records one processed file. A nil *Metrics is a no-op.
func (m *Metrics) Observe(category constants.Category, outcome constants.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(string(category), string(outcome)).Inc()
	m.ExtractSeconds.WithLabelValues(string(category)).Observe(elapsed.Seconds())
}

// SetQueueDepth reports the number of waiting jobs. A nil *Metrics is a no-op.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

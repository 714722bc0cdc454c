package prometheus

import (
	"time"

	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// queueMetrics is the Prometheus implementation of metrics.QueueMetrics.
type queueMetrics struct {
	depth         *prometheus.GaugeVec
	drainDuration prometheus.Histogram
	drainScopes   prometheus.Histogram
	replays       *prometheus.CounterVec
}

// NewQueueMetrics creates a new Prometheus-backed QueueMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewQueueMetrics() metrics.QueueMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &queueMetrics{
		depth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offline_queue_depth",
				Help: "Current number of queued operations by status",
			},
			[]string{"status"}, // pending, in_flight, conflict, dead_letter, done
		),
		drainDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "offline_queue_drain_duration_seconds",
				Help:    "Duration of a full drain pass across all scopes",
				Buckets: prometheus.DefBuckets,
			},
		),
		drainScopes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "offline_queue_drain_scopes",
				Help:    "Number of auth scopes drained per pass",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		replays: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_queue_replays_total",
				Help: "Total number of replayed operations by outcome",
			},
			[]string{"outcome"}, // done, conflict, dead_letter, retry
		),
	}
}

func (m *queueMetrics) SetDepth(status string, count int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(status).Set(float64(count))
}

func (m *queueMetrics) ObserveDrain(scopeCount int, duration time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(duration.Seconds())
	m.drainScopes.Observe(float64(scopeCount))
}

func (m *queueMetrics) RecordReplay(outcome string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(outcome).Inc()
}

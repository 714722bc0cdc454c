package prometheus

import (
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// breakerMetrics is the Prometheus implementation of metrics.BreakerMetrics.
type breakerMetrics struct {
	state      *prometheus.GaugeVec
	failures   *prometheus.CounterVec
	successes  prometheus.Counter
	backoffMs  prometheus.Gauge
}

// NewBreakerMetrics creates a new Prometheus-backed BreakerMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBreakerMetrics() metrics.BreakerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &breakerMetrics{
		state: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offline_breaker_state",
				Help: "Circuit breaker state indicator (1 for the active state, 0 otherwise)",
			},
			[]string{"state"}, // closed, open, half_open
		),
		failures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_breaker_failures_total",
				Help: "Total number of classified failures recorded by the breaker",
			},
			[]string{"class"}, // network, timeout, server_5xx, client_4xx
		),
		successes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offline_breaker_successes_total",
				Help: "Total number of successes recorded by the breaker",
			},
		),
		backoffMs: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "offline_breaker_backoff_milliseconds",
				Help: "Current backoff duration in milliseconds",
			},
		),
	}
}

func (m *breakerMetrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range []string{"closed", "open", "half_open"} {
		if s == state {
			m.state.WithLabelValues(s).Set(1)
		} else {
			m.state.WithLabelValues(s).Set(0)
		}
	}
}

func (m *breakerMetrics) RecordFailure(class string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(class).Inc()
}

func (m *breakerMetrics) RecordSuccess() {
	if m == nil {
		return
	}
	m.successes.Inc()
}

func (m *breakerMetrics) SetBackoffMs(ms int64) {
	if m == nil {
		return
	}
	m.backoffMs.Set(float64(ms))
}

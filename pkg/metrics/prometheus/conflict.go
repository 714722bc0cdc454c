package prometheus

import (
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// conflictMetrics is the Prometheus implementation of metrics.ConflictMetrics.
type conflictMetrics struct {
	opened    prometheus.Counter
	resolved  *prometheus.CounterVec
	timeouts  prometheus.Counter
	abandoned prometheus.Counter
}

// NewConflictMetrics creates a new Prometheus-backed ConflictMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewConflictMetrics() metrics.ConflictMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &conflictMetrics{
		opened: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offline_conflict_opened_total",
				Help: "Total number of conflicts opened awaiting a decision",
			},
		),
		resolved: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_conflict_resolved_total",
				Help: "Total number of conflicts resolved by action",
			},
			[]string{"action"}, // keep_mine, use_theirs, merge, force_save
		),
		timeouts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offline_conflict_timeouts_total",
				Help: "Total number of conflicts that escalated after waiting too long for a decision",
			},
		),
		abandoned: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offline_conflict_abandoned_total",
				Help: "Total number of conflicts abandoned without resolution",
			},
		),
	}
}

func (m *conflictMetrics) RecordOpened() {
	if m == nil {
		return
	}
	m.opened.Inc()
}

func (m *conflictMetrics) RecordResolved(action string) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(action).Inc()
}

func (m *conflictMetrics) RecordTimeout() {
	if m == nil {
		return
	}
	m.timeouts.Inc()
}

func (m *conflictMetrics) RecordAbandoned() {
	if m == nil {
		return
	}
	m.abandoned.Inc()
}

package prometheus

import (
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// overlayMetrics is the Prometheus implementation of metrics.OverlayMetrics.
type overlayMetrics struct {
	driftCorrections *prometheus.CounterVec
	revision         *prometheus.GaugeVec
}

// NewOverlayMetrics creates a new Prometheus-backed OverlayMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewOverlayMetrics() metrics.OverlayMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &overlayMetrics{
		driftCorrections: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_overlay_drift_corrections_total",
				Help: "Total number of reconciliation passes that corrected popup position drift",
			},
			[]string{"auth_scope"},
		),
		revision: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offline_overlay_revision",
				Help: "Current persisted document revision per auth scope",
			},
			[]string{"auth_scope"},
		),
	}
}

func (m *overlayMetrics) RecordDriftCorrection(authScope string) {
	if m == nil {
		return
	}
	m.driftCorrections.WithLabelValues(authScope).Inc()
}

func (m *overlayMetrics) SetRevision(authScope string, revision int64) {
	if m == nil {
		return
	}
	m.revision.WithLabelValues(authScope).Set(float64(revision))
}

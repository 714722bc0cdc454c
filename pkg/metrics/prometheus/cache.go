package prometheus

import (
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheMetrics is the Prometheus implementation of metrics.CacheMetrics.
type cacheMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	bytes     *prometheus.GaugeVec
}

// NewCacheMetrics creates a new Prometheus-backed CacheMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCacheMetrics() metrics.CacheMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &cacheMetrics{
		hits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_cache_hits_total",
				Help: "Total number of cache hits by namespace",
			},
			[]string{"namespace"},
		),
		misses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_cache_misses_total",
				Help: "Total number of cache misses by namespace",
			},
			[]string{"namespace"},
		),
		evictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_cache_evictions_total",
				Help: "Total number of cache evictions by namespace and reason",
			},
			[]string{"namespace", "reason"}, // reason: "ttl", "budget", "blocklist"
		),
		bytes: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offline_cache_namespace_bytes",
				Help: "Current occupied bytes per cache namespace",
			},
			[]string{"namespace"},
		),
	}
}

func (m *cacheMetrics) RecordHit(namespace string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(namespace).Inc()
}

func (m *cacheMetrics) RecordMiss(namespace string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(namespace).Inc()
}

func (m *cacheMetrics) RecordEviction(namespace, reason string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(namespace, reason).Inc()
}

func (m *cacheMetrics) SetNamespaceBytes(namespace string, bytes int64) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(namespace).Set(float64(bytes))
}

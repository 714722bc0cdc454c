// Package metrics bootstraps the Prometheus registry shared by every
// subsystem's metrics collector and exposes it over HTTP. Each subsystem
// owns its own metrics type (QueueMetrics, CacheMetrics, BreakerMetrics,
// ConflictMetrics, OverlayMetrics); pkg/metrics/prometheus supplies the
// concrete promauto-backed implementations.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the shared registry when metrics are enabled. Must
// be called once during startup before any NewXMetrics constructor.
func InitRegistry(metricsEnabled bool) {
	enabled = metricsEnabled
	if !enabled {
		return
	}
	registry = prometheus.NewRegistry()
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	return enabled
}

// GetRegistry returns the shared registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Server exposes /metrics over HTTP.
type Server struct {
	httpServer *http.Server
}

// NewServer constructs a metrics HTTP server bound to addr. Returns nil if
// metrics are disabled.
func NewServer(addr string) *Server {
	if !enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start serves /metrics until the server is stopped or fails. Intended to
// be run in its own goroutine.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

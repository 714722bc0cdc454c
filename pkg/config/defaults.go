package config

import (
	"strings"
	"time"

	"github.com/offlinefoundation/core/internal/bytesize"
	"github.com/offlinefoundation/core/pkg/api"
	"github.com/offlinefoundation/core/pkg/cachemgr"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownDefaults(cfg)
	applyNetworkDetectorDefaults(&cfg.NetworkDetector)
	applyCircuitBreakerDefaults(&cfg.CircuitBreaker)
	applyReplayQueueDefaults(&cfg.ReplayQueue)
	applyCacheDefaults(&cfg.Cache)
	applyConflictDefaults(&cfg.Conflict)
	applyOverlayDefaults(&cfg.Overlay)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation.
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry and profiling defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry); zero value is fine.

	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces).
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope continuous profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space"}
	}
}

// applyShutdownDefaults sets the graceful shutdown timeout.
func applyShutdownDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

// applyNetworkDetectorDefaults sets probe loop defaults.
func applyNetworkDetectorDefaults(cfg *NetworkDetectorConfig) {
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = "https://www.gstatic.com/generate_204"
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 1500 * time.Millisecond
	}
	if cfg.GoodInterval == 0 {
		cfg.GoodInterval = 10 * time.Second
	}
	if cfg.DegradedInterval == 0 {
		cfg.DegradedInterval = 3 * time.Second
	}
	if cfg.OfflineInterval == 0 {
		cfg.OfflineInterval = 2 * time.Second
	}
	if cfg.JitterFraction == 0 {
		cfg.JitterFraction = 0.2
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 16
	}
	if cfg.EWMAAlpha == 0 {
		cfg.EWMAAlpha = 0.3
	}
	if cfg.ThreshFail == 0 {
		cfg.ThreshFail = 0.3
	}
	if cfg.ThreshOffline == 0 {
		cfg.ThreshOffline = 0.8
	}
}

// applyCircuitBreakerDefaults sets the breaker state machine defaults.
func applyCircuitBreakerDefaults(cfg *CircuitBreakerConfig) {
	if cfg.OpenThreshold == 0 {
		cfg.OpenThreshold = 3
	}
	if cfg.OpenCooldown == 0 {
		cfg.OpenCooldown = 10 * time.Second
	}
	if cfg.CloseSuccesses == 0 {
		cfg.CloseSuccesses = 2
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 1000 * time.Millisecond
	}
	if cfg.BackoffCap == 0 {
		cfg.BackoffCap = 30 * time.Second
	}
}

// applyReplayQueueDefaults sets the write replay queue defaults.
func applyReplayQueueDefaults(cfg *ReplayQueueConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir("replayqueue")
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = 25
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.MaxConcurrentScopes == 0 {
		cfg.MaxConcurrentScopes = 4
	}
	if cfg.DrainTickInterval == 0 {
		cfg.DrainTickInterval = 5 * time.Second
	}
}

// applyCacheDefaults sets the response cache manager defaults, including
// the "documents" and "lists" namespaces called out in the cache contract.
func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir("cache")
	}
	if cfg.Namespaces == nil {
		cfg.Namespaces = map[string]NamespaceConfig{}
		for _, ns := range cachemgr.DefaultNamespaces() {
			cfg.Namespaces[ns.Name] = NamespaceConfig{TTL: ns.TTL, BudgetBytes: bytesize.ByteSize(ns.BudgetBytes)}
		}
	}
	if cfg.BlocklistedPaths == nil {
		cfg.BlocklistedPaths = []string{"/healthz", "/readyz", "/api/v1/auth"}
	}
}

// applyConflictDefaults sets the conflict resolution engine defaults.
func applyConflictDefaults(cfg *ConflictConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxTimeouts == 0 {
		cfg.MaxTimeouts = 3
	}
}

// applyOverlayDefaults sets the floating overlay controller's persistence
// and drift-tolerance defaults.
func applyOverlayDefaults(cfg *OverlayConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir("overlay")
	}
	if cfg.DriftTolerancePx == 0 {
		cfg.DriftTolerancePx = 5.0
	}
}

// applyMetricsDefaults sets Prometheus metrics server defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in); Port only matters when enabled.
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyAPIDefaults sets control API server defaults.
//
// api.APIConfig's own applyDefaults is unexported, so the field-by-field
// mirror lives here rather than crossing the package boundary.
func applyAPIDefaults(cfg *api.APIConfig) {
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-insecure-offline-foundation-jwt-secret"
	}
}

// defaultDataDir builds the default badger directory for a subsystem store
// as the relative path ./data/<subsystem>.
func defaultDataDir(subsystem string) string {
	return "./data/" + subsystem
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files, tests, and
// documentation.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

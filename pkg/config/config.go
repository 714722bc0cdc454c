package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/offlinefoundation/core/internal/bytesize"
	"github.com/offlinefoundation/core/pkg/api"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the offline foundation server's static configuration.
//
// This structure captures the configuration of every subsystem: network
// quality detection, circuit breaking, the write replay queue, the cache
// manager, conflict resolution, the overlay persistence store, and the
// ambient concerns (logging, telemetry, metrics, API).
//
// Configuration sources (in order of precedence):
//  1. Environment variables (OFFLINE_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// CLI flags are not bound to configuration keys.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// NetworkDetector configures the network quality probe loop.
	NetworkDetector NetworkDetectorConfig `mapstructure:"network_detector" yaml:"network_detector"`

	// CircuitBreaker configures the per-endpoint circuit breaker.
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker" yaml:"circuit_breaker"`

	// ReplayQueue configures the durable write replay queue.
	ReplayQueue ReplayQueueConfig `mapstructure:"replay_queue" yaml:"replay_queue"`

	// Cache configures the response cache manager.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Conflict configures the conflict resolution engine.
	Conflict ConflictConfig `mapstructure:"conflict" yaml:"conflict"`

	// Overlay configures the floating overlay controller's persistence layer.
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains the control API server configuration.
	API api.APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use an insecure (non-TLS) connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling of the whole process.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// NetworkDetectorConfig configures the network quality probe.
type NetworkDetectorConfig struct {
	// ProbeURL is the health endpoint the detector polls.
	ProbeURL string `mapstructure:"probe_url" validate:"required" yaml:"probe_url"`

	// ProbeTimeout bounds each individual probe request.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"required,gt=0" yaml:"probe_timeout"`

	// GoodInterval is the base probe interval while quality is Good.
	GoodInterval time.Duration `mapstructure:"good_interval" yaml:"good_interval"`

	// DegradedInterval is the base probe interval while quality is Degraded.
	DegradedInterval time.Duration `mapstructure:"degraded_interval" yaml:"degraded_interval"`

	// OfflineInterval is the base probe interval while quality is Offline.
	OfflineInterval time.Duration `mapstructure:"offline_interval" yaml:"offline_interval"`

	// JitterFraction is the +/- fraction applied to each interval (0.2 = ±20%).
	JitterFraction float64 `mapstructure:"jitter_fraction" validate:"gte=0,lte=1" yaml:"jitter_fraction"`

	// WindowSize is the number of recent samples kept for quality classification.
	WindowSize int `mapstructure:"window_size" validate:"required,gt=0" yaml:"window_size"`

	// EWMAAlpha is the smoothing factor applied to RTT samples.
	EWMAAlpha float64 `mapstructure:"ewma_alpha" validate:"gt=0,lte=1" yaml:"ewma_alpha"`

	// ThreshFail is the fraction of the last WindowSize samples that must
	// have failed for the detector to report Degraded.
	ThreshFail float64 `mapstructure:"thresh_fail" validate:"gt=0,lte=1" yaml:"thresh_fail"`

	// ThreshOffline is the fraction of the last WindowSize samples that
	// must have failed for the detector to report Offline. Must be >= ThreshFail.
	ThreshOffline float64 `mapstructure:"thresh_offline" validate:"gt=0,lte=1" yaml:"thresh_offline"`
}

// CircuitBreakerConfig configures the circuit breaker state machine.
type CircuitBreakerConfig struct {
	// OpenThreshold is the number of consecutive counted failures that trips the breaker.
	OpenThreshold int `mapstructure:"open_threshold" validate:"required,gt=0" yaml:"open_threshold"`

	// OpenCooldown is how long the breaker stays Open before probing Half-Open.
	OpenCooldown time.Duration `mapstructure:"open_cooldown" validate:"required,gt=0" yaml:"open_cooldown"`

	// CloseSuccesses is the number of consecutive successes in Half-Open needed to close.
	CloseSuccesses int `mapstructure:"close_successes" validate:"required,gt=0" yaml:"close_successes"`

	// BackoffBase is the starting delay for the exponential backoff calculator.
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"required,gt=0" yaml:"backoff_base"`

	// BackoffCap bounds the maximum computed backoff delay.
	BackoffCap time.Duration `mapstructure:"backoff_cap" validate:"required,gt=0" yaml:"backoff_cap"`
}

// ReplayQueueConfig configures the durable write replay queue.
type ReplayQueueConfig struct {
	// DataDir is the badger directory backing the queue store.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// MaxBatch bounds the operations drained per authScope in each Drain()
	// call; the total across scopes is not bounded by it.
	MaxBatch int `mapstructure:"max_batch" validate:"required,gt=0" yaml:"max_batch"`

	// MaxAttempts is the retry ceiling before an operation moves to dead_letter.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0" yaml:"max_attempts"`

	// MaxConcurrentScopes bounds how many authScopes drain concurrently.
	MaxConcurrentScopes int `mapstructure:"max_concurrent_scopes" validate:"required,gt=0" yaml:"max_concurrent_scopes"`

	// DrainTickInterval is the periodic fallback trigger for Drain().
	DrainTickInterval time.Duration `mapstructure:"drain_tick_interval" validate:"required,gt=0" yaml:"drain_tick_interval"`
}

// CacheConfig specifies the response cache manager configuration.
type CacheConfig struct {
	// DataDir is the badger directory backing the cache store.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// Namespaces maps a namespace name to its TTL and byte budget.
	// Defaults provide "documents" and "lists" per spec.
	Namespaces map[string]NamespaceConfig `mapstructure:"namespaces" yaml:"namespaces"`

	// BlocklistedPaths are URL path prefixes never cached (health, telemetry, auth).
	BlocklistedPaths []string `mapstructure:"blocklisted_paths" yaml:"blocklisted_paths"`
}

// NamespaceConfig describes a single cache namespace's TTL and storage budget.
type NamespaceConfig struct {
	// TTL is how long an entry remains fresh before stale-while-revalidate kicks in.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// BudgetBytes bounds total storage for this namespace; LRU eviction enforces it.
	BudgetBytes bytesize.ByteSize `mapstructure:"budget_bytes" yaml:"budget_bytes"`
}

// ConflictConfig configures the conflict resolution engine.
type ConflictConfig struct {
	// Timeout is how long a conflict may sit awaiting_user before reverting to pending.
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0" yaml:"timeout"`

	// MaxTimeouts is the number of repeated timeouts before a conflict moves to dead_letter.
	MaxTimeouts int `mapstructure:"max_timeouts" validate:"required,gt=0" yaml:"max_timeouts"`

	// ForceSaveField, when set, lets force be signaled via a JSON body field
	// instead of the X-Idempotency-Force header.
	ForceSaveField string `mapstructure:"force_save_field" yaml:"force_save_field,omitempty"`
}

// OverlayConfig configures the floating overlay controller's persistence
// and coordinate-reconciliation behavior.
type OverlayConfig struct {
	// DataDir is the badger directory backing overlay persistence.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// DriftTolerancePx is the screen-pixel threshold beyond which a popup's
	// projected position is corrected back onto its anchor.
	DriftTolerancePx float64 `mapstructure:"drift_tolerance_px" validate:"required,gt=0" yaml:"drift_tolerance_px"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP server are enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (OFFLINE_*)
//  2. Configuration file
//  3. Default values
//
// When no configuration file is found, the defaults are returned as they
// are and environment variables are not applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  offlinectl init\n\n"+
				"Or specify a custom config file:\n"+
				"  offlinectl <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  offlinectl init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the OFFLINE_ prefix.
	// Example: OFFLINE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("OFFLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for ByteSize and time.Duration.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize,
// enabling config files to use human-readable sizes like "1Gi", "50MB".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, enabling config files
// to use human-readable durations like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, falling back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "offline-foundation")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "offline-foundation")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the init command).
func GetConfigDir() string {
	return getConfigDir()
}

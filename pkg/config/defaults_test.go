package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("Expected default shutdown timeout 15s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.WriteTimeout != 10*time.Second {
		t.Errorf("Expected default write timeout 10s, got %v", cfg.API.WriteTimeout)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
	if !cfg.API.IsEnabled() {
		t.Error("Expected API to default to enabled")
	}
}

func TestApplyDefaults_CircuitBreaker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.CircuitBreaker.OpenThreshold != 3 {
		t.Errorf("Expected default open threshold 3, got %d", cfg.CircuitBreaker.OpenThreshold)
	}
	if cfg.CircuitBreaker.CloseSuccesses != 2 {
		t.Errorf("Expected default close successes 2, got %d", cfg.CircuitBreaker.CloseSuccesses)
	}
}

func TestApplyDefaults_Cache(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Cache.DataDir == "" {
		t.Error("Expected default cache data dir to be set")
	}
	docs, ok := cfg.Cache.Namespaces["documents"]
	if !ok {
		t.Fatal("Expected default 'documents' cache namespace")
	}
	if docs.TTL != 7*24*time.Hour {
		t.Errorf("Expected 'documents' TTL 7d, got %v", docs.TTL)
	}
	if docs.BudgetBytes != 50*1024*1024 {
		t.Errorf("Expected 'documents' budget 50MB, got %v", docs.BudgetBytes)
	}

	lists, ok := cfg.Cache.Namespaces["lists"]
	if !ok {
		t.Fatal("Expected default 'lists' cache namespace")
	}
	if lists.TTL != 24*time.Hour {
		t.Errorf("Expected 'lists' TTL 24h, got %v", lists.TTL)
	}
	if lists.BudgetBytes != 15*1024*1024 {
		t.Errorf("Expected 'lists' budget 15MB, got %v", lists.BudgetBytes)
	}
}

func TestApplyDefaults_Overlay(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Overlay.DriftTolerancePx != 5.0 {
		t.Errorf("Expected default drift tolerance 5.0, got %v", cfg.Overlay.DriftTolerancePx)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/offline-foundation.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Conflict: ConflictConfig{
			Timeout:     10 * time.Minute,
			MaxTimeouts: 5,
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/offline-foundation.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Conflict.MaxTimeouts != 5 {
		t.Errorf("Expected explicit max timeouts to be preserved, got %d", cfg.Conflict.MaxTimeouts)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.API.Port == 0 {
		t.Error("Default config missing API port")
	}
	if cfg.Cache.DataDir == "" {
		t.Error("Default config missing cache data dir")
	}
	if cfg.ReplayQueue.DataDir == "" {
		t.Error("Default config missing replay queue data dir")
	}
	if cfg.Overlay.DataDir == "" {
		t.Error("Default config missing overlay data dir")
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/offlinefoundation/core/internal/logger"
	"github.com/offlinefoundation/core/internal/telemetry"
	"github.com/offlinefoundation/core/pkg/api"
	"github.com/offlinefoundation/core/pkg/breaker"
	"github.com/offlinefoundation/core/pkg/cachemgr"
	cachestore "github.com/offlinefoundation/core/pkg/cachemgr/store"
	"github.com/offlinefoundation/core/pkg/conflict"
	"github.com/offlinefoundation/core/pkg/conflict/merge"
	conflictstore "github.com/offlinefoundation/core/pkg/conflict/store"
	"github.com/offlinefoundation/core/pkg/config"
	"github.com/offlinefoundation/core/pkg/metrics"
	promMetrics "github.com/offlinefoundation/core/pkg/metrics/prometheus"
	"github.com/offlinefoundation/core/pkg/netquality"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"github.com/offlinefoundation/core/pkg/overlay"
	"github.com/offlinefoundation/core/pkg/replayqueue"
	replaystore "github.com/offlinefoundation/core/pkg/replayqueue/store"
	"github.com/offlinefoundation/core/pkg/replayqueue/transport"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `offlinesvc - Unified offline foundation server

Usage:
  offlinesvc <command> [flags]

Commands:
  init     Initialize a sample configuration file
  start    Start the offline foundation server
  version  Show version information

Flags:
  --config string    Path to config file (default: $XDG_CONFIG_HOME/offline-foundation/config.yaml)
  --force            Force overwrite existing config file (init command only)

Examples:
  offlinesvc init
  offlinesvc start
  offlinesvc start --config /etc/offline-foundation/config.yaml

Environment Variables:
  All configuration options can be overridden using environment variables.
  Format: OFFLINE_<SECTION>_<KEY> (use underscores for nested keys)

  Example:
    OFFLINE_LOGGING_LEVEL=DEBUG offlinesvc start
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit()
	case "start":
		runStart()
	case "help", "--help", "-h":
		fmt.Print(usage)
	case "version", "--version", "-v":
		fmt.Printf("offlinesvc %s (commit: %s, built: %s)\n", version, commit, date)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runInit() {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	configFile := initFlags.String("config", "", "Path to config file")
	force := initFlags.Bool("force", false, "Force overwrite existing config file")
	if err := initFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	var configPath string
	var err error
	if *configFile != "" {
		err = config.InitConfigToPath(*configFile, *force)
		configPath = *configFile
	} else {
		configPath, err = config.InitConfig(*force)
	}
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("Start the server with: offlinesvc start")
}

func runStart() {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	configFile := startFlags.String("config", "", "Path to config file")
	if err := startFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	if *configFile == "" && !config.DefaultConfigExists() {
		fmt.Fprintf(os.Stderr, "Error: No configuration file found at default location: %s\n\n", config.GetDefaultConfigPath())
		fmt.Fprintln(os.Stderr, "Initialize one first: offlinesvc init")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loggerCfg := logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}
	if err := logger.Init(loggerCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "offline-foundation",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "offline-foundation",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		log.Fatalf("Failed to initialize profiling: %v", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("offline foundation starting", "version", version)

	metrics.InitRegistry(cfg.Metrics.Enabled)
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port))
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer shutdownCancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
		logger.Info("metrics server enabled", "port", cfg.Metrics.Port)
	}

	deps, closeFn, err := buildSubsystems(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize subsystems: %v", err)
	}
	defer closeFn()

	worker := replayqueue.NewWorker(deps.Queue, cfg.ReplayQueue.DrainTickInterval)
	unsubscribeQuality := deps.Detector.Subscribe(worker.OnQualityChange)
	unsubscribeBreaker := deps.Breaker.Subscribe(worker.OnBreakerChange)
	defer unsubscribeQuality()
	defer unsubscribeBreaker()

	worker.Start(ctx)
	defer worker.Stop()
	deps.Detector.Start(ctx)
	defer deps.Detector.Stop()

	var apiServer *api.Server
	if cfg.API.IsEnabled() {
		apiServer = api.NewServer(cfg.API, deps)
		logger.Info("API server enabled", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	serverDone := make(chan error, 1)
	if apiServer != nil {
		go func() { serverDone <- apiServer.Start(ctx) }()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if apiServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer shutdownCancel()
			if err := apiServer.Stop(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", "error", err)
			}
		}
		logger.Info("Server stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("API server error", "error", err)
			os.Exit(1)
		}
	}
}

// buildSubsystems wires the network detector, circuit breaker, replay
// queue, cache manager, conflict engine, and overlay store from config.
// The replay queue owns its own embedded badger instance (ReplayQueue.DataDir);
// the cache manager and the conflict engine share one instance (Cache.DataDir,
// since conflict has no DataDir of its own) under separate key prefixes; the
// overlay store owns a third instance (Overlay.DataDir) - mirroring the
// teacher's one-badger-instance-per-store directory layout.
func buildSubsystems(cfg *config.Config) (api.Dependencies, func(), error) {
	b := breaker.New(breaker.Config{
		OpenThreshold:  cfg.CircuitBreaker.OpenThreshold,
		OpenCooldown:   cfg.CircuitBreaker.OpenCooldown,
		CloseSuccesses: cfg.CircuitBreaker.CloseSuccesses,
		BackoffBase:    cfg.CircuitBreaker.BackoffBase,
		BackoffCap:     cfg.CircuitBreaker.BackoffCap,
	}, promMetrics.NewBreakerMetrics())

	detector := netquality.New(netquality.Config{
		ProbeURL:         cfg.NetworkDetector.ProbeURL,
		ProbeTimeout:     cfg.NetworkDetector.ProbeTimeout,
		GoodInterval:     cfg.NetworkDetector.GoodInterval,
		DegradedInterval: cfg.NetworkDetector.DegradedInterval,
		OfflineInterval:  cfg.NetworkDetector.OfflineInterval,
		JitterFraction:   cfg.NetworkDetector.JitterFraction,
		WindowSize:       cfg.NetworkDetector.WindowSize,
		EWMAAlpha:        cfg.NetworkDetector.EWMAAlpha,
		ThreshFail:       cfg.NetworkDetector.ThreshFail,
		ThreshOffline:    cfg.NetworkDetector.ThreshOffline,
	})

	if err := os.MkdirAll(cfg.ReplayQueue.DataDir, 0o755); err != nil {
		return api.Dependencies{}, nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to create replay queue data directory", err)
	}
	replaySt, err := replaystore.Open(cfg.ReplayQueue.DataDir)
	if err != nil {
		return api.Dependencies{}, nil, err
	}

	sender := transport.NewHTTPSender(cfg.NetworkDetector.ProbeTimeout)
	queue := replayqueue.New(replaySt, b, sender, replayqueue.Config{
		MaxBatch:            cfg.ReplayQueue.MaxBatch,
		MaxAttempts:         cfg.ReplayQueue.MaxAttempts,
		MaxConcurrentScopes: cfg.ReplayQueue.MaxConcurrentScopes,
	}, promMetrics.NewQueueMetrics())

	cacheDB, err := badgerOpen(cfg.Cache.DataDir)
	if err != nil {
		return api.Dependencies{}, nil, err
	}
	cacheSt := cachestore.OpenWithDB(cacheDB)
	namespaces := make([]cachemgr.Namespace, 0, len(cfg.Cache.Namespaces))
	for name, ns := range cfg.Cache.Namespaces {
		namespaces = append(namespaces, cachemgr.Namespace{Name: name, TTL: ns.TTL, BudgetBytes: int64(ns.BudgetBytes)})
	}
	cache := cachemgr.New(cacheSt, b, namespaces, cfg.Cache.BlocklistedPaths, promMetrics.NewCacheMetrics())

	conflictSt := conflictstore.OpenWithDB(cacheDB)
	resender := transport.NewQueueResender(queue, sender, cfg.Conflict.ForceSaveField)
	merger := merge.NewNodeListMerger("id")
	conflictMgr := conflict.New(conflictSt, merger, b, resender, resender, cache, conflict.Config{
		Timeout:     cfg.Conflict.Timeout,
		MaxTimeouts: cfg.Conflict.MaxTimeouts,
	}, promMetrics.NewConflictMetrics())
	queue.SetInvalidator(cache)

	overlayDB, err := badgerOpen(cfg.Overlay.DataDir)
	if err != nil {
		return api.Dependencies{}, nil, err
	}
	overlaySt := overlay.OpenWithDB(overlayDB, promMetrics.NewOverlayMetrics())

	deps := api.Dependencies{
		Detector:  detector,
		Breaker:   b,
		Queue:     queue,
		Cache:     cache,
		Conflicts: conflictMgr,
		Overlay:   overlaySt,
		JWTSecret: cfg.API.JWTSecret,
	}

	closeFn := func() {
		_ = replaySt.Close()
		_ = cacheDB.Close()
		_ = overlayDB.Close()
	}

	return deps, closeFn, nil
}

func badgerOpen(dir string) (*badger.DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to create data directory", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to open badger database at "+dir, err)
	}
	return db, nil
}

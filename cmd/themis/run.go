package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/themis/pkg/appeal"
	"mercator-hq/themis/pkg/arbitration"
	"mercator-hq/themis/pkg/audit"
	"mercator-hq/themis/pkg/cli"
	"mercator-hq/themis/pkg/config"
	"mercator-hq/themis/pkg/constitution"
	"mercator-hq/themis/pkg/precedent"
	"mercator-hq/themis/pkg/rules"
	"mercator-hq/themis/pkg/telemetry/logging"
	"mercator-hq/themis/pkg/telemetry/metrics"
	"mercator-hq/themis/pkg/verdict"
	"mercator-hq/themis/pkg/waiver"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Themis arbitration engine",
	Long: `Start the arbitration engine with the specified configuration.

The engine loads the constitutional rule file, opens the precedent and
audit stores, and serves Prometheus metrics on the configured address.
Sessions are driven through the library API; this process keeps the
stores, housekeeping sweeps, and telemetry alive.

Examples:
  # Start with default config
  themis run

  # Start with custom config
  themis run --config /etc/themis/config.yaml

  # Validate config without starting the engine
  themis run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.NewLogger(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Themis v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	// Constitution
	registry := constitution.NewRegistry()
	if cfg.Constitution.Path != "" {
		if err := constitution.LoadIntoRegistry(cfg.Constitution.Path, registry); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("loading constitution: %w", err))
		}
		fmt.Printf("✓ Constitution loaded (%d rules)\n", registry.Len())
	} else {
		slog.Warn("no constitution file configured, starting with an empty registry")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Constitution.Watch && cfg.Constitution.Path != "" {
		watcher := constitution.NewWatcher(cfg.Constitution.Path, registry, cfg.Constitution.DebounceInterval, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("constitution watcher stopped", "error", err)
			}
		}()
		fmt.Println("✓ Constitution watcher started")
	}

	// Precedent store
	var store precedent.Store
	switch cfg.Precedents.Backend {
	case "sqlite":
		store, err = precedent.NewSQLiteStore(cfg.Precedents.DBPath)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("opening precedent store: %w", err))
		}
	case "memory":
		store = precedent.NewMemoryStore()
	default:
		return cli.NewConfigError("precedents.backend", fmt.Sprintf("unsupported backend %q", cfg.Precedents.Backend))
	}
	defer store.Close()
	fmt.Printf("✓ Precedent store initialized (%s)\n", cfg.Precedents.Backend)

	// Audit
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		var sink audit.Sink
		switch cfg.Audit.Backend {
		case "sqlite":
			sink, err = audit.NewSQLiteSink(cfg.Audit.DBPath)
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("opening audit sink: %w", err))
			}
		case "memory":
			sink = audit.NewMemorySink()
		default:
			return cli.NewConfigError("audit.backend", fmt.Sprintf("unsupported backend %q", cfg.Audit.Backend))
		}
		recorder = audit.NewRecorder(sink, audit.RecorderConfig{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}, logger)
		defer recorder.Close()
		fmt.Printf("✓ Audit recorder initialized (%s)\n", cfg.Audit.Backend)
	}

	// Telemetry
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Telemetry.Metrics.ListenAddress)
	}

	// Engine components
	engine, err := rules.NewEngine(nil, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("creating rule engine: %w", err))
	}

	interpreter := waiver.NewInterpreter(waiver.InterpreterConfig{
		MinJustificationLength:  cfg.Waivers.MinJustificationLength,
		MinEvidenceForApproval:  cfg.Waivers.MinEvidenceForApproval,
		AllowConditionalWaivers: cfg.Waivers.AllowConditionalWaivers,
		MaxWaiverDuration:       cfg.Waivers.MaxWaiverDuration,
		AutoRevokeOnExpiration:  cfg.Waivers.AutoRevokeOnExpiration,
	}, logger)

	if cfg.Waivers.SweepSchedule != "" {
		sweeper := waiver.NewSweeper(interpreter, cfg.Waivers.SweepSchedule, logger)
		if err := sweeper.Start(ctx); err != nil {
			slog.Warn("waiver sweeper failed to start", "error", err)
		} else {
			defer sweeper.Stop()
			if next := sweeper.NextRun(); next != nil {
				slog.Debug("waiver sweeper started", "next_run", next)
			}
		}
	}

	orchestrator, err := arbitration.NewOrchestrator(arbitration.OrchestratorConfig{
		MaxConcurrentSessions: cfg.Arbitration.MaxConcurrentSessions,
		EnableWaivers:         cfg.Arbitration.EnableWaivers,
		EnableAppeals:         cfg.Arbitration.EnableAppeals,
	}, arbitration.Dependencies{
		Registry: registry,
		Rules:    engine,
		Verdicts: verdict.NewGenerator(verdict.GeneratorConfig{
			HighConfidenceThreshold: cfg.Arbitration.HighConfidenceThreshold,
		}, logger),
		Matcher: precedent.NewMatcher(precedent.NewVectorAnalyzer(nil), precedent.MatcherConfig{
			MinSimilarityThreshold: cfg.Matcher.MinSimilarityThreshold,
			MaxResults:             cfg.Matcher.MaxResults,
			EnableFallback:         cfg.Matcher.EnableFallback,
			Weights: precedent.Weights{
				Entity:     cfg.Matcher.Weights.Entity,
				Intent:     cfg.Matcher.Weights.Intent,
				Semantic:   cfg.Matcher.Weights.Semantic,
				Category:   cfg.Matcher.Weights.Category,
				Severity:   cfg.Matcher.Weights.Severity,
				Conditions: cfg.Matcher.Weights.Conditions,
			},
		}, logger),
		Precedents: store,
		Waivers:    interpreter,
		Appeals: appeal.NewArbitrator(appeal.ArbitratorConfig{
			MaxAppealLevels:      cfg.Appeals.MaxAppealLevels,
			MinEvidenceForAppeal: cfg.Appeals.MinEvidenceForAppeal,
			MinGroundsLength:     cfg.Appeals.MinGroundsLength,
			RequireUnanimous:     cfg.Appeals.RequireUnanimous,
		}, logger),
		Recorder: recorder,
		Metrics:  collector,
		Logger:   logger,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println()
	fmt.Printf("✓ Arbitration engine ready (max %d concurrent sessions)\n", cfg.Arbitration.MaxConcurrentSessions)
	fmt.Println("\nPress Ctrl+C to stop")

	sig := <-cli.WaitForShutdown()
	fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
	cancel()

	if active := orchestrator.ActiveCount(); active > 0 {
		slog.Warn("shutting down with active sessions", "active", active)
	}
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}

	fmt.Println("✓ Engine stopped")
	return nil
}

// loadConfig reads the configured file, falling back to built-in
// defaults when the default path does not exist and no explicit
// --config was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		slog.Info("no config file found, using defaults", "path", cfgFile)
		return config.DefaultConfig(), nil
	}
	return nil, err
}

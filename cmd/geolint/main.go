// Package main provides the entry point for the geolint validation service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/geolint/internal/adapters/geopackage"
	"github.com/jobrunner/geolint/internal/adapters/planar"
	"github.com/jobrunner/geolint/internal/adapters/proximity"
	"github.com/jobrunner/geolint/internal/app"
	"github.com/jobrunner/geolint/internal/application"
	"github.com/jobrunner/geolint/internal/config"
	"github.com/jobrunner/geolint/internal/domain"
	"github.com/jobrunner/geolint/internal/ports/input"
	"github.com/jobrunner/geolint/internal/ports/output"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "geolint",
	Short: "geolint - Geometry defect detection for GeoPackage layers",
	Long: `geolint validates the vector layers of a GeoPackage against a
configurable set of geometry checks and reports every defect with its
location.

Checks:
  - Null, empty and invalid shapes
  - Self-intersections and ring self-overlaps
  - Duplicate and overlapping features
  - Minimum vertex counts and spikes
  - Network undershoots and overshoots

Features:
  - Periodic and on-demand validation runs
  - REST API for run reports
  - Multiple storage backends (local, AWS S3, Azure, HTTP)
  - Revalidation on store file changes
  - TLS with automatic certificate management
  - Prometheus metrics`,
	RunE: runServer,
}

var validateCmd = &cobra.Command{
	Use:   "validate <store.gpkg>",
	Short: "Validate one vector store and write a JSON report",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("geolint %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("checks", "checks.csv", "per-table check matrix (CSV)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")
	rootCmd.Flags().Bool("tls", false, "enable TLS")
	rootCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	rootCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")

	// Storage flags
	rootCmd.Flags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.Flags().String("storage-path", "./data", "local storage path")

	// Validation flags
	rootCmd.Flags().Duration("interval", 0, "periodic validation interval (0 disables)")
	rootCmd.Flags().Bool("fail-fast", false, "abort the run on the first failed layer")
	rootCmd.Flags().Bool("watch", false, "revalidate when a store file changes")

	// CORS flags
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Validate command flags
	validateCmd.Flags().String("output", "", "report file (default: stdout)")
	validateCmd.Flags().Bool("fail-fast", false, "abort the run on the first failed layer")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("validation.checks_file", rootCmd.PersistentFlags().Lookup("checks"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", rootCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", rootCmd.Flags().Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", rootCmd.Flags().Lookup("tls-email"))
	_ = viper.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("validation.interval", rootCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("validation.fail_fast", rootCmd.Flags().Lookup("fail-fast"))
	_ = viper.BindPFlag("watch.enabled", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting geolint",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// runValidate executes one batch validation run without the server.
func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	configs, err := config.LoadChecks(cfg.Validation.ChecksFile)
	if err != nil {
		return fmt.Errorf("loading checks: %w", err)
	}

	failFast, _ := cmd.Flags().GetBool("fail-fast")
	outputPath, _ := cmd.Flags().GetString("output")

	repository := geopackage.NewRepository()
	defer func() { _ = repository.CloseAll() }()

	validator := application.NewValidationService(
		repository,
		planar.NewValidator(),
		proximity.NewChecker(logger),
		&output.NoOpMetrics{},
		logger,
		failFast || cfg.Validation.FailFast,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	progress := input.ProgressFunc(func(percent int, message string) {
		logger.Info("progress", "percent", percent, "message", message)
	})

	run, err := validator.ValidateStore(ctx, domain.ValidationRequest{
		StorePath: args[0],
		Configs:   configs,
		Criteria:  cfg.Criteria.ToDomain(),
	}, progress)
	if err != nil {
		return fmt.Errorf("validating %s: %w", args[0], err)
	}

	if err := writeReport(run, outputPath); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	logger.Info("validation finished",
		"run_id", run.ID,
		"status", run.Status,
		"layers", len(run.Items),
		"defects", run.DefectCount(),
	)

	if run.Status != domain.RunComplete {
		return fmt.Errorf("run %s finished with status %s: %s", run.ID, run.Status, run.Error)
	}
	return nil
}

// writeReport writes the run as indented JSON to a file or stdout.
func writeReport(run *domain.ValidationRun, path string) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path) //#nosec G304 -- path comes from the command line
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

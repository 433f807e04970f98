// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jobrunner/geolint/internal/adapters/geopackage"
	httpAdapter "github.com/jobrunner/geolint/internal/adapters/http"
	"github.com/jobrunner/geolint/internal/adapters/metrics"
	"github.com/jobrunner/geolint/internal/adapters/planar"
	"github.com/jobrunner/geolint/internal/adapters/proximity"
	"github.com/jobrunner/geolint/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/geolint/internal/adapters/tls"
	"github.com/jobrunner/geolint/internal/adapters/watcher"
	"github.com/jobrunner/geolint/internal/application"
	"github.com/jobrunner/geolint/internal/config"
	"github.com/jobrunner/geolint/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Repository    *geopackage.Repository
	Validator     *application.ValidationService
	History       *application.RunHistory
	RunService    *application.RunService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("geolint")
		app.MetricsServer = metrics.NewServer(
			cfg.Metrics.Port,
			cfg.Metrics.Path,
			logger,
		)
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize storage adapter; a plain local path needs no object storage
	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store

	// Initialize the vector store repository and the geometry backends
	app.Repository = geopackage.NewRepository()

	app.Validator = application.NewValidationService(
		app.Repository,
		planar.NewValidator(),
		proximity.NewChecker(logger),
		metricsCollector,
		logger,
		cfg.Validation.FailFast,
	)

	// Load the per-table check matrix
	configs, err := config.LoadChecks(cfg.Validation.ChecksFile)
	if err != nil {
		return nil, fmt.Errorf("loading checks: %w", err)
	}

	// Initialize run history and the background run service
	app.History = application.NewRunHistory(cfg.Validation.HistoryLimit)

	app.RunService = application.NewRunService(
		app.Validator,
		app.History,
		store,
		logger,
		cfg.Validation.Interval,
		cfg.Storage.LocalPath,
		cfg.Storage.LocalPath,
		configs,
		cfg.Criteria.ToDomain(),
	)

	// Initialize health service
	app.HealthService = application.NewHealthService(app.History, app.RunService)

	// Initialize HTTP report server
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.History,
		app.HealthService,
		app.RunService,
		logger,
	)

	if app.Metrics != nil {
		app.HTTPServer.Use(app.Metrics.Middleware)
	}

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize file watcher for revalidation on store changes
	if cfg.Watch.Enabled && cfg.Storage.Type == "local" {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{cfg.Storage.LocalPath},
				Debounce: cfg.Watch.Debounce,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Start the periodic run scheduler
	a.RunService.Start(ctx)

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	// Start metrics server in background
	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil && err.Error() != "http: Server closed" {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Start server
	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Stop the run scheduler and wait for an in-flight run
	a.RunService.Stop()

	// Shutdown metrics server
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Close any open vector stores
	if err := a.Repository.CloseAll(); err != nil {
		a.Logger.Error("failed to close vector stores", "error", err)
	}

	return nil
}

// handleFileEvent triggers a revalidation when a store file settles.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		a.Logger.Info("store file changed, revalidating",
			"path", event.Path,
			"operation", event.Operation.String(),
		)
		result, err := a.RunService.TriggerRun(ctx)
		if err != nil {
			return err
		}
		a.Logger.Info("revalidation finished",
			"run_id", result.RunID,
			"status", result.Status,
			"defects", result.Defects,
		)
		return nil

	case watcher.OpDelete:
		// Close the store if it is open; nothing to validate
		storeID := geopackage.DeriveStoreID(event.Path)
		if err := a.Repository.Close(ctx, storeID); err != nil {
			a.Logger.Warn("failed to close deleted store", "id", storeID, "error", err)
		}
		return nil
	}

	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

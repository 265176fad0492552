package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loopkitchen/storewatch/config"
	"github.com/loopkitchen/storewatch/internal/adapters/reportrunner"
	"github.com/loopkitchen/storewatch/internal/core"
	"github.com/loopkitchen/storewatch/internal/data"
	"github.com/loopkitchen/storewatch/internal/observability/statsd"
	"github.com/loopkitchen/storewatch/internal/report"
	"github.com/loopkitchen/storewatch/internal/service"
)

// shutdownWaitTimeout bounds how long shutdown waits per service.
const shutdownWaitTimeout = 15 * time.Second

// ServiceDeps holds the external dependencies services are built from.
type ServiceDeps struct {
	DB     *sql.DB
	Redis  redis.UniversalClient
	Config *config.AppConfig
	Logger *slog.Logger
}

// ServiceContainer holds the constructed services shared by the HTTP server
// and the report worker.
type ServiceContainer struct {
	DB       *sql.DB
	Reports  *service.ReportService
	Catalog  *service.CatalogService
	Writer   *report.Writer
	Observns core.ObservationRepository

	// Metrics is non-nil when a StatsD sink is configured; callers own its
	// lifecycle and should Close it on shutdown.
	Metrics *statsd.Client
}

// NewServices wires repositories and services from the given dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.DB == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies require a DB handle and config")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reportRepo := data.NewReportRepo(deps.DB, data.ReportRepoConfig{Logger: logger})
	observationRepo := data.NewObservationRepo(deps.DB)
	catalogRepo := data.NewCatalogRepo(deps.DB)

	var cache core.CacheRepository
	if deps.Redis != nil && deps.Config.Cache.Enabled {
		cache = data.NewRedisCacheRepo(deps.Redis)
	}

	var metricsSink *statsd.Client
	if deps.Config.Observability.Metrics.IsEnabled() {
		sink, sinkErr := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: deps.Config.Observability.Metrics.StatsdAddress,
			Prefix:  "storewatch",
			Logger:  logger,
		})
		if sinkErr != nil {
			logger.Error("failed to initialise statsd client, metrics disabled", "error", sinkErr)
		} else {
			metricsSink = sink
		}
	}

	reports, err := service.NewReportService(service.ReportServiceOptions{
		Repo:    reportRepo,
		Metrics: metricsSink,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create report service: %w", err)
	}

	catalog, err := service.NewCatalogService(service.CatalogServiceOptions{
		Repo:            catalogRepo,
		Cache:           cache,
		DefaultTimezone: deps.Config.Report.DefaultTimezone,
		CacheTTL:        deps.Config.Cache.CatalogTTL,
		Logger:          logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create catalog service: %w", err)
	}

	writer, err := report.NewWriter(report.WriterOptions{
		Observations: observationRepo,
		Catalog:      catalog,
		Store:        report.NewCSVStore(deps.Config.Report.Dir),
		Concurrency:  deps.Config.Report.Concurrency,
		Metrics:      metricsSink,
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create report writer: %w", err)
	}

	return ServiceContainer{
		DB:       deps.DB,
		Reports:  reports,
		Catalog:  catalog,
		Writer:   writer,
		Observns: observationRepo,
		Metrics:  metricsSink,
	}, nil
}

// ServiceOrchestrationConfig groups everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(enabledServices)+1)

	var httpServer *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	var workerDone <-chan struct{}
	if enabledServices[config.ServiceModeReportWorker] {
		workerDone, err = startReportWorker(serviceCtx, cfg, logger, errCh)
		if err != nil {
			return err
		}
	}

	return waitForShutdown(shutdownConfig{
		ctx:        serviceCtx,
		cancel:     cancel,
		errCh:      errCh,
		httpServer: httpServer,
		workerDone: workerDone,
		logger:     logger,
	})
}

func startReportWorker(
	ctx context.Context,
	cfg *ServiceOrchestrationConfig,
	logger *slog.Logger,
	errCh chan<- error,
) (<-chan struct{}, error) {
	runner, err := reportrunner.NewRunner(reportrunner.RunnerOptions{
		Reports:      cfg.Services.Reports,
		Generator:    cfg.Services.Writer,
		PollInterval: cfg.Config.Report.PollInterval,
		RunTimeout:   cfg.Config.Report.RunTimeout,
		Metrics:      cfg.Services.Metrics,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create report runner: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := runner.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			errCh <- fmt.Errorf("report worker: %w", runErr)
		}
	}()
	return done, nil
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx        context.Context
	cancel     context.CancelFunc
	errCh      <-chan error
	httpServer *http.Server
	workerDone <-chan struct{}
	logger     *slog.Logger
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	if cfg.workerDone != nil {
		select {
		case <-cfg.workerDone:
			cfg.logger.Info("report worker stopped")
		case <-time.After(shutdownWaitTimeout):
			cfg.logger.Warn("timeout waiting for report worker to stop")
		}
	}

	return nil
}

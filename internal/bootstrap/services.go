package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/adapters/arbiterrunner"
	"github.com/target/releasegate/internal/adapters/trackerrunner"
	"github.com/target/releasegate/internal/data"
	"github.com/target/releasegate/internal/eventlog"
	"github.com/target/releasegate/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds the application services shared across runners.
type ServiceContainer struct {
	Ingest *service.IngestService
	Status *service.StatusService
	Log    eventlog.Log
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the shared services from connected infrastructure.
func NewServices(deps *ServiceDeps) ServiceContainer {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}
	}

	log := eventlog.NewRedisStreamLog(deps.RedisClient)
	jobs := data.NewJobRepo(deps.DB)
	results := data.NewResultRepo(deps.DB)
	decisions := data.NewDecisionRepo(deps.DB)

	return ServiceContainer{
		Ingest: service.NewIngestService(jobs, log, deps.Config.EventLog),
		Status: service.NewStatusService(jobs, results, decisions),
		Log:    log,
	}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal is received or a service fails.
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

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabled)+1)

	handles := make([]backgroundServiceHandle, 0, len(enabled))
	for _, svc := range buildBackgroundServices(cfg, logger) {
		if !enabled[svc.mode] {
			continue
		}
		handles = append(handles, launchBackground(serviceCtx, svc, errCh, logger))
	}

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		logger:      logger,
		backgrounds: handles,
	})
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []backgroundService {
	return []backgroundService{
		{
			mode: config.ServiceModeTracker,
			name: "tracker",
			start: func(ctx context.Context) error {
				runner, err := trackerrunner.NewRunner(trackerrunner.RunnerOptions{
					DB:       cfg.DB,
					EventLog: cfg.Services.Log,
					Logger:   logger,
					Topics:   cfg.Config.EventLog,
					Tracker:  cfg.Config.Tracker,
				})
				if err != nil {
					return err
				}
				return runner.Run(ctx)
			},
		},
		{
			mode: config.ServiceModeArbiter,
			name: "arbiter",
			start: func(ctx context.Context) error {
				runner, err := arbiterrunner.NewRunner(arbiterrunner.RunnerOptions{
					DB:          cfg.DB,
					RedisClient: cfg.RedisClient,
					EventLog:    cfg.Services.Log,
					Logger:      logger,
					Topics:      cfg.Config.EventLog,
					Arbiter:     cfg.Config.Arbiter,
				})
				if err != nil {
					return err
				}
				return runner.Run(ctx)
			},
		},
	}
}

func launchBackground(
	ctx context.Context,
	svc backgroundService,
	errCh chan<- error,
	logger *slog.Logger,
) backgroundServiceHandle {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := svc.start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errMsg := fmt.Errorf("%s failed: %w", svc.name, err)
			select {
			case errCh <- errMsg:
			case <-ctx.Done():
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", svc.name)
	return backgroundServiceHandle{name: svc.name, done: done}
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		gracefulStop(cfg)
		return nil
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		gracefulStop(cfg)
		return err
	}
}

// gracefulStop waits for background services to finish, bounded per service.
func gracefulStop(cfg shutdownConfig) {
	for _, svc := range cfg.backgrounds {
		select {
		case <-svc.done:
			cfg.logger.Info(svc.name + " stopped")
		case <-time.After(shutdownWaitTimeout):
			cfg.logger.Warn("timeout waiting for " + svc.name + " to stop")
		}
	}
}

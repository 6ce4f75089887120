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
	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/adapters/recharge"
	"github.com/seasonalbox/boxsync/internal/adapters/redisrt"
	"github.com/seasonalbox/boxsync/internal/adapters/sweeper"
	"github.com/seasonalbox/boxsync/internal/adapters/worker"
	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/dateshift"
	"github.com/seasonalbox/boxsync/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Dispatcher     *service.WebhookDispatcher
	PendingUpdates *service.PendingUpdateService
	Reconciliation *service.ReconciliationService
	Jobs           *service.JobService
	Delivery       *service.DeliveryService

	// SocketRegistry backs the realtime session-to-socket binding. Exposed
	// so transports that accept socket connections can register them.
	SocketRegistry *redisrt.SocketRegistry

	// Notifier publishes job lifecycle notices; nil when Redis is absent.
	Notifier *redisrt.Notifier

	repos *serviceRepositories
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB                *sql.DB
	Redis             redis.UniversalClient
	PendingUpdateRepo *data.PendingUpdateRepo
	FaultyRepo        *data.FaultySubscriptionRepo
	JobRepo           *data.JobRepo
	OrderRepo         *data.OrderRepo
	BoxRepo           *data.BoxRepo
	SettingsRepo      *data.SettingsRepo
	CustomerRepo      *data.CustomerRepo
	WebhookLogRepo    *data.WebhookLogRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	tp := &data.RealTimeProvider{}
	retryDelay := 0
	if cfg != nil {
		retryDelay = int(cfg.Worker.RetryDelay / time.Second)
	}
	return &serviceRepositories{
		DB:                db,
		Redis:             redisClient,
		PendingUpdateRepo: data.NewPendingUpdateRepo(db, tp),
		FaultyRepo:        data.NewFaultySubscriptionRepo(db, tp),
		JobRepo: data.NewJobRepo(db, data.JobRepoConfig{
			RetryDelaySeconds: retryDelay,
			Logger:            logger,
		}),
		OrderRepo:      data.NewOrderRepo(db, tp),
		BoxRepo:        data.NewBoxRepo(db),
		SettingsRepo:   data.NewSettingsRepo(db),
		CustomerRepo:   data.NewCustomerRepo(db),
		WebhookLogRepo: data.NewWebhookLogRepo(db, tp),
	}
}

// newSessionNotifier builds the realtime notifier when Redis is available.
func newSessionNotifier(redisClient redis.UniversalClient, logger *slog.Logger) (*redisrt.Notifier, *redisrt.SocketRegistry) {
	if redisClient == nil {
		return nil, nil
	}
	registry := redisrt.NewSocketRegistry(redisClient)
	notifier, err := redisrt.NewNotifier(redisrt.NotifierOptions{
		Client:   redisClient,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("realtime notifier unavailable", "error", err)
		}
		return nil, registry
	}
	return notifier, registry
}

// sessionNotifierOrNil avoids handing services a typed-nil interface value.
func sessionNotifierOrNil(n *redisrt.Notifier) core.SessionNotifier {
	if n == nil {
		return nil
	}
	return n
}

// deliveryCalculator resolves the delivery calendar timezone, falling back
// to UTC when the configured zone cannot be loaded.
func deliveryCalculator(cfg config.DeliveryConfig, logger *slog.Logger) *dateshift.Calculator {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid delivery timezone, falling back to UTC",
				"timezone", cfg.Timezone, "error", err)
		}
		loc = time.UTC
	}
	return dateshift.NewCalculator(loc)
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}

	repos := buildRepositories(deps.DB, deps.RedisClient, cfg, logger)
	notifier, registry := newSessionNotifier(deps.RedisClient, logger)

	pendingSvc := service.MustNewPendingUpdateService(service.PendingUpdateServiceOptions{
		Repo:     repos.PendingUpdateRepo,
		Notifier: sessionNotifierOrNil(notifier),
		Logger:   logger,
	})

	reconciliationSvc := service.MustNewReconciliationService(service.ReconciliationServiceOptions{
		Pending:   repos.PendingUpdateRepo,
		Faulty:    repos.FaultyRepo,
		Customers: repos.CustomerRepo,
		Logger:    logger,
	})

	jobSvc := service.MustNewJobService(service.JobServiceOptions{
		Repo:       repos.JobRepo,
		MaxRetries: cfg.Worker.MaxRetries,
		Logger:     logger,
	})

	deliverySvc, err := service.NewDeliveryService(service.DeliveryServiceOptions{
		Calculator: deliveryCalculator(cfg.Delivery, logger),
		Pending:    pendingSvc,
		Jobs:       jobSvc,
		Logger:     logger,
	})
	if err != nil {
		// Only reachable with nil dependencies, which are constructed above.
		panic(fmt.Sprintf("build delivery service: %v", err))
	}

	dispatcher := service.NewWebhookDispatcher(service.WebhookDispatcherOptions{
		AuditLog: repos.WebhookLogRepo,
		Logger:   logger,
	})
	handlers, err := service.NewWebhookHandlers(service.WebhookHandlersOptions{
		Pending:  pendingSvc,
		Orders:   repos.OrderRepo,
		Boxes:    repos.BoxRepo,
		Settings: repos.SettingsRepo,
		Logger:   logger,
	})
	if err != nil {
		panic(fmt.Sprintf("build webhook handlers: %v", err))
	}
	handlers.RegisterAll(dispatcher)

	return ServiceContainer{
		Dispatcher:     dispatcher,
		PendingUpdates: pendingSvc,
		Reconciliation: reconciliationSvc,
		Jobs:           jobSvc,
		Delivery:       deliverySvc,
		SocketRegistry: registry,
		Notifier:       notifier,
		repos:          repos,
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

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode    config.ServiceMode
	name    string
	enabled func() bool
	start   func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}
	if descriptor.enabled != nil && !descriptor.enabled() {
		if deps.logger != nil {
			deps.logger.InfoContext(ctx, "background service disabled via config", "service", descriptor.name)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				if deps.logger != nil {
					deps.logger.WarnContext(ctx, "dropping background service error",
						"service", descriptor.name, "error", errMsg)
				}
			}
		}
	}()

	if deps.logger != nil {
		deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	}

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeWorker,
		name: "billing job worker",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			cfg := deps.cfg.Config

			billing, err := recharge.NewClient(recharge.ClientOptions{
				Config: cfg.Recharge,
				Logger: deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build billing client: %w", err)
			}

			runner, err := worker.NewRunner(worker.RunnerOptions{
				Jobs:     deps.cfg.Services.repos.JobRepo,
				Billing:  billing,
				Notifier: sessionNotifierOrNil(deps.cfg.Services.Notifier),
				Logger:   deps.logger,
				Worker:   cfg.Worker,
			})
			if err != nil {
				return fmt.Errorf("build worker runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newSweeperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeSweeper,
		name: "pending-update sweeper",
		enabled: func() bool {
			return deps != nil && deps.cfg != nil && deps.cfg.Config != nil && deps.cfg.Config.Sweeper.Enabled
		},
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
				Reconciliation: deps.cfg.Services.Reconciliation,
				Config:         deps.cfg.Config.Sweeper,
				Logger:         deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build sweeper runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newWorkerBackgroundService(deps),
		newSweeperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownDeps{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		grace:       cfg.Config.HTTP.ShutdownGrace,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// shutdownDeps contains dependencies for graceful shutdown.
type shutdownDeps struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	grace       time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(deps shutdownDeps) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		deps.logger.Info("shutting down services...")
		deps.cancel() // Cancel service context before waiting
		return gracefulStop(deps)
	case err := <-deps.errCh:
		deps.logger.Error("service error", "error", err)
		deps.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(deps); stopErr != nil {
			deps.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(deps shutdownDeps) error {
	if deps.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  deps.httpServer,
			Grace:   deps.grace,
			Logger:  deps.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range deps.backgrounds {
		waitForService(svc.done, svc.name, deps.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}

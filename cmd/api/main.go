package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/finance-service/internal/api/http"
	"github.com/spec-kit/finance-service/internal/api/http/handlers"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/config"
	"github.com/spec-kit/finance-service/internal/events"
	"github.com/spec-kit/finance-service/internal/lock"
	"github.com/spec-kit/finance-service/internal/observability"
	"github.com/spec-kit/finance-service/internal/persistence"
	"github.com/spec-kit/finance-service/internal/repository"
	"github.com/spec-kit/finance-service/internal/service"
	"github.com/spec-kit/finance-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			return err
		}
	}

	deps := map[string]handlers.Pinger{"postgres": pg}
	locker := lock.Locker(lock.NewLocal())
	if cfg.Redis.Enabled {
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps["redis"] = rdb
		locker = lock.Chain{lock.NewLocal(), lock.NewRedis(rdb.Client, cfg.Redis.LockKey, cfg.Redis.LockTTL, 0, logger)}
	}

	dispatcher := events.NewInMemoryDispatcher()
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close() //nolint:errcheck
		worker.StartEventForwarder(dispatcher, publisher, logger)
		logger.Info("forwarding events", zap.String("exchange", cfg.AMQP.Exchange))
	}

	metrics := observability.NewMetrics()

	pool := pg.Pool
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	hierarchyDeps := service.HierarchyDependencies{
		DepartmentRepo:    departmentRepo,
		SubordinationRepo: repository.NewSubordinationRepository(pool),
		Locker:            locker,
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
	}
	elementRepo := repository.NewElementRepository(pool)
	responsibilityRepo := repository.NewResponsibilityRepository(pool)

	authService := service.NewAuthService(*cfg, userRepo, logger)
	subordinationService := service.NewSubordinationService(hierarchyDeps)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:            handlers.NewUsersHandler(authService),
		Departments:      handlers.NewDepartmentsHandler(service.NewDepartmentService(hierarchyDeps), subordinationService),
		Subordinations:   handlers.NewSubordinationsHandler(subordinationService),
		Catalog:          handlers.NewCatalogHandler(service.NewCatalogService(elementRepo)),
		Budgets:          handlers.NewBudgetsHandler(service.NewBudgetService(repository.NewBudgetRepository(pool), departmentRepo)),
		Expenses:         handlers.NewExpensesHandler(service.NewExpenseService(repository.NewExpenseRepository(pool), departmentRepo, elementRepo)),
		Responsibilities: handlers.NewResponsibilitiesHandler(service.NewResponsibilityService(responsibilityRepo, userRepo, departmentRepo)),
		AuthMiddleware:   auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		Metrics:          metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

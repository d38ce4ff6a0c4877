package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fixlab/repair-service/internal/api/http"
	"github.com/fixlab/repair-service/internal/api/http/handlers"
	"github.com/fixlab/repair-service/internal/auth"
	"github.com/fixlab/repair-service/internal/config"
	"github.com/fixlab/repair-service/internal/events"
	"github.com/fixlab/repair-service/internal/observability"
	"github.com/fixlab/repair-service/internal/persistence"
	"github.com/fixlab/repair-service/internal/repository"
	"github.com/fixlab/repair-service/internal/service"
	"github.com/fixlab/repair-service/internal/tracking"
	"github.com/fixlab/repair-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo: ticketRepo,
		Codes:      tracking.NewGenerator(cfg.Shop.TrackingPrefix),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		Lifecycle:      lifecycle,
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
	})
	warranty := service.NewWarrantyService(service.WarrantyDependencies{
		Lifecycle:  lifecycle,
		TicketRepo: ticketRepo,
		Logger:     logger,
	})
	lookup := service.NewLookupService(ticketRepo, redis.Client, cfg.Lookup.RateLimitPerMinute, logger)
	labels := service.NewLabelService(lifecycle, cfg.Shop)
	authService := service.NewAuthService(cfg.Auth, technicianRepo)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), technicianRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Public:         handlers.NewPublicHandler(lifecycle, lookup),
		Repairs:        handlers.NewRepairsHandler(lifecycle, assignment, labels, historyRepo),
		Warranty:       handlers.NewWarrantyHandler(warranty),
		Staff:          handlers.NewStaffHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

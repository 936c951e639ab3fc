package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-assigner/internal/api/http"
	"github.com/spec-kit/ticket-assigner/internal/api/http/handlers"
	"github.com/spec-kit/ticket-assigner/internal/auth"
	"github.com/spec-kit/ticket-assigner/internal/bootstrap"
	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/events"
	"github.com/spec-kit/ticket-assigner/internal/observability"
	"github.com/spec-kit/ticket-assigner/internal/persistence"
	"github.com/spec-kit/ticket-assigner/internal/repository"
	"github.com/spec-kit/ticket-assigner/internal/service"
	"github.com/spec-kit/ticket-assigner/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	catalog, extractor, err := bootstrap.Skills(cfg.Assignment)
	if err != nil {
		logger.Fatal("failed to load skill catalog", zap.Error(err))
	}
	logger.Info("skill catalog loaded", zap.Int("skills", catalog.Len()))

	locker, err := bootstrap.Locker(cfg.Assignment, redis, logger)
	if err != nil {
		logger.Fatal("failed to configure assignment lock", zap.Error(err))
	}
	logger.Info("assignment lock mode", zap.String("mode", cfg.Assignment.LockMode))

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		Locker:       locker,
		Observer:     metrics,
		Dispatcher:   dispatcher,
		Logger:       logger.Named("assignment"),
		BulkPageSize: cfg.Assignment.BulkPageSize,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Extractor:  extractor,
		Assigner:   assignmentService,
		Dispatcher: dispatcher,
		Logger:     logger.Named("tickets"),
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Revoker:    redis,
		Dispatcher: dispatcher,
		Logger:     logger.Named("auth"),
	})

	historyService := service.NewHistoryService(service.HistoryDependencies{
		HistoryRepo: historyRepo,
		Tickets:     ticketService,
		Dispatcher:  dispatcher,
		Logger:      logger.Named("history"),
	})

	mail, chat := bootstrap.Notifiers(cfg.Notification)
	worker.StartSubscribers(
		historyService,
		service.NewNotificationService(service.NotificationDependencies{
			Dispatcher: dispatcher,
			Logger:     logger.Named("notify"),
			Mail:       mail,
			Chat:       chat,
		}),
	)

	scheduler, err := worker.NewBulkScheduler(cfg.Assignment.BulkSchedule, assignmentService, metrics, logger.Named("bulk"))
	if err != nil {
		logger.Fatal("failed to schedule bulk auto-assign", zap.Error(err))
	}
	scheduler.Start()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, redis)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		History:        handlers.NewHistoryHandler(historyService),
		Assignment:     handlers.NewAssignmentHandler(assignmentService, metrics),
		Skills:         handlers.NewSkillsHandler(catalog, extractor),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

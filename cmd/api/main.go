package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/servicedeskpro/servicedesk/internal/api/http"
	"github.com/servicedeskpro/servicedesk/internal/api/http/handlers"
	"github.com/servicedeskpro/servicedesk/internal/auth"
	"github.com/servicedeskpro/servicedesk/internal/config"
	"github.com/servicedeskpro/servicedesk/internal/events"
	"github.com/servicedeskpro/servicedesk/internal/observability"
	"github.com/servicedeskpro/servicedesk/internal/persistence"
	"github.com/servicedeskpro/servicedesk/internal/seed"
	"github.com/servicedeskpro/servicedesk/internal/service"
	"github.com/servicedeskpro/servicedesk/internal/session"
	"github.com/servicedeskpro/servicedesk/internal/store"
	"github.com/servicedeskpro/servicedesk/internal/tickets"
	"github.com/servicedeskpro/servicedesk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := store.NewUserRepository(pool)
	ticketRepo := store.NewTicketRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	sessions := session.NewSessions(redis.Client)
	provider := session.NewProvider(userRepo, sessions, tokens, cfg.Auth, logger)

	dispatcher := events.NewInMemoryDispatcher()

	manager := tickets.NewManager(ticketRepo, dispatcher, logger)
	unobserve := provider.Observe(manager.HandleSessionChange)
	defer unobserve()

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	payments := service.NewPaymentService(cfg.Payment, userRepo, redis.Client, dispatcher, logger)

	if cfg.Seed.Enabled {
		seeder := seed.NewSeeder(redis.Client, userRepo, ticketRepo, cfg.Auth.BcryptCost, logger)
		if err := seeder.Run(ctx); err != nil {
			logger.Error("demo data seeding failed", zap.Error(err))
		}
	}

	authMiddleware := auth.NewMiddleware(tokens, sessions, userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(provider, cfg.Auth.BcryptCost),
		Tickets:        handlers.NewTicketsHandler(manager),
		Admin:          handlers.NewAdminHandler(manager),
		Payments:       handlers.NewPaymentHandler(payments, cfg.Payment.KeyID),
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

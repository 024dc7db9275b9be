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

	httptransport "github.com/eventra-app/admin-service/internal/api/http"
	"github.com/eventra-app/admin-service/internal/api/http/handlers"
	"github.com/eventra-app/admin-service/internal/auth"
	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/observability"
	"github.com/eventra-app/admin-service/internal/persistence"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/internal/repository/memory"
	"github.com/eventra-app/admin-service/internal/service"
	"github.com/eventra-app/admin-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	var (
		store     repository.Store
		storeInfo *persistence.Postgres
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
		storeInfo = pg
	} else {
		logger.Warn("serving from the in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		locker    lock.Locker
		lockRedis *persistence.Redis
	)
	if redis.Reachable() {
		locker = lock.NewRedisLocker(redis.Client, cfg.Entitlement.LockTTL(), logger)
		lockRedis = redis
	} else {
		logger.Warn("redis unreachable; entity locks are process local")
		locker = lock.NewLocalLocker()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	deps := service.Dependencies{
		Store:      store,
		Locker:     locker,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Config:     cfg.Entitlement,
	}

	verificationService := service.NewVerificationService(deps)
	premiumService := service.NewPremiumService(deps)
	notificationService := service.NewNotificationService(deps, cfg.Notification, nil)
	worker.StartNotificationWorker(notificationService, cfg.Notification.WebhookURL, logger)

	sweep, err := worker.StartExpirySweep(cfg.Entitlement.ExpirySweepSchedule, premiumService, cfg.Entitlement.ExpirySweepTimeout(), logger)
	if err != nil {
		logger.Fatal("failed to schedule expiry sweep", zap.Error(err))
	}
	defer sweep.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, storeInfo, lockRedis, metrics),
		Verifications:  handlers.NewVerificationHandler(verificationService),
		Premium:        handlers.NewPremiumHandler(premiumService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		MutationRPS:    cfg.App.MutationRPS,
		MutationBurst:  cfg.App.MutationBurst,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

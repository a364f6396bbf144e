package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/db"
	"github.com/otc-marketplace/backend/internal/events"
	apphttp "github.com/otc-marketplace/backend/internal/http"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/http/handlers"
	"github.com/otc-marketplace/backend/internal/logger"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.MustNew(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	defer log.Sync()

	cfg.Validate(log)
	if err := cfg.RequireAuthSecret(); err != nil {
		log.Fatal("telegram auth is not configured", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	listingRepo := repositories.NewListingRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	statsRepo := repositories.NewStatsRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Auth
	verifier := auth.NewWebAppVerifier(auth.WebAppConfig{
		BotToken:   cfg.WebAppSecret,
		MaxAge:     cfg.InitDataMaxAge,
		FutureSkew: cfg.InitDataFutureSkew,
		Strict:     cfg.InitDataStrict,
	})
	revoked := auth.NewRedisRevocationStore(rdb)

	// Services
	authService := services.NewAuthService(verifier, userRepo, auditRepo, revoked, cfg, log)
	listingService := services.NewListingService(listingRepo, categoryRepo, userRepo, statsRepo, auditRepo, publisher, log)
	messageService := services.NewMessageService(messageRepo, listingRepo, userRepo, publisher, log)
	categoryService := services.NewCategoryService(categoryRepo, auditRepo, log)
	adminService := services.NewAdminService(userRepo, listingRepo, categoryRepo, statsRepo, auditRepo, publisher, log)
	walletService := services.NewWalletService(userRepo, auditRepo, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, revoked, subscriber, log)
	h := apphttp.Handlers{
		Auth:     handlers.NewAuthHandler(authService, log),
		User:     handlers.NewUserHandler(authService, listingService, messageService, walletService, log),
		Listing:  handlers.NewListingHandler(listingService, log),
		Message:  handlers.NewMessageHandler(messageService, log),
		Category: handlers.NewCategoryHandler(categoryService, log),
		Admin:    handlers.NewAdminHandler(adminService, log),
		Meta:     handlers.NewMetaHandler(),
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		}),
		WS: wsHub,
	}

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			reqID, _ := c.Locals(middleware.CtxRequestID).(string)
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: reqID})
		},
	})

	apphttp.SetupRouter(app, apphttp.Deps{
		Config:  cfg,
		Log:     log,
		Limiter: middleware.NewRedisCounter(rdb),
		Revoked: revoked,
		Users:   userRepo,
	}, h)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

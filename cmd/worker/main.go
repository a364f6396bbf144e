package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/db"
	"github.com/otc-marketplace/backend/internal/logger"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/services"
	"github.com/otc-marketplace/backend/internal/statsparser"
	"go.uber.org/zap"
)

// Worker обновляет число подписчиков каналов, выставленных на продажу.

const refreshTick = time.Minute

func main() {
	cfg := config.Load()

	log := logger.MustNew(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	listingRepo := repositories.NewListingRepo(pool)
	parser := statsparser.NewParser(cfg.TMEFetchTimeoutMS, cfg.TMEFetchMaxRetries, log)
	statsService := services.NewChannelStatsService(listingRepo, parser, cfg.StatsRefreshInterval, log)

	log.Info("worker started", zap.Duration("refresh_interval", cfg.StatsRefreshInterval))

	ticker := time.NewTicker(refreshTick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runRefresh(ctx, statsService, log)
	for {
		select {
		case <-ticker.C:
			runRefresh(ctx, statsService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runRefresh(ctx context.Context, svc *services.ChannelStatsService, log *zap.Logger) {
	n, err := svc.RefreshDue(ctx)
	if err != nil {
		log.Error("channel stats refresh failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("channel stats refreshed", zap.Int("count", n))
	}
}

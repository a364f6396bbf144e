package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/db"
	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/logger"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// Bot Notify Bridge — subscribes to Redis notify events and forwards
// them to the bot service, which delivers the Telegram message.

func main() {
	cfg := config.Load()

	log := logger.MustNew(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	botClient := services.NewBotClient(cfg.BotInternalURL, log)

	err = subscriber.Subscribe(ctx, events.TopicNotify, func(event events.Event) {
		id, text, ok := events.NotifyTarget(event)
		if !ok {
			log.Warn("dropping malformed notify event", zap.String("type", event.Type))
			return
		}
		sendCtx, sendCancel := context.WithTimeout(ctx, 10*time.Second)
		defer sendCancel()
		if err := botClient.Notify(sendCtx, id, text); err != nil {
			log.Warn("failed to forward notification", zap.Int64("telegram_user_id", id), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.String("topic", events.TopicNotify), zap.Error(err))
	}

	log.Info("bot-notify-bridge started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down bot-notify-bridge")
	cancel()
}

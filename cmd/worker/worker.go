package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pusher/pusher-http-go/v5"
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/internal/bootstrap"
	"TripMate/internal/queue"
	"TripMate/internal/realtime"
	"TripMate/pkg/logger"
	"TripMate/storage"
)

func main() {
	logger.Init("worker")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	cfg := config.Cfg

	shutdownTelemetry, err := bootstrap.InitTelemetry(ctx, "worker")
	if err != nil {
		logger.Logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	// worker 不读写业务表，但去重依赖 Redis，队列拓扑在 mq.Init 中声明
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer func() { _ = storage.Close() }()

	if !cfg.PusherEnabled() {
		logger.Logger.Warn("Pusher credentials are missing, worker has nothing to forward")
		return
	}

	client := &pusher.Client{
		AppID:   cfg.PusherAppID,
		Key:     cfg.PusherKey,
		Secret:  cfg.PusherSecret,
		Cluster: cfg.PusherCluster,
		Secure:  true,
	}

	logger.Logger.Info("Worker service starting",
		zap.String("service", cfg.ServiceName+"-worker"),
		zap.String("queue", cfg.ChangePushQueue),
		zap.String("environment", cfg.Environment),
	)

	if err := queue.StartPushConsumer(ctx, cfg.ChangePushQueue, realtime.NewPusherNotifier(client), cfg.ChangePrefetch); err != nil {
		logger.Logger.Error("Push consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/internal/bootstrap"
	"TripMate/internal/realtime"
	"TripMate/internal/schedule"
	"TripMate/internal/service"
	"TripMate/pkg/geocode"
	"TripMate/pkg/logger"
	"TripMate/pkg/objectstore"
	"TripMate/pkg/snowflake"
	"TripMate/storage"
	"TripMate/storage/database"
)

func main() {
	logger.Init("scheduler")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	cfg := config.Cfg

	shutdownTelemetry, err := bootstrap.InitTelemetry(ctx, "scheduler")
	if err != nil {
		logger.Logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	var closeHooks []storage.Hook
	defer func() { _ = storage.Close(closeHooks...) }()

	// 与 server、worker 使用不同的 machine id 避免撞号
	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}
	if err := geocode.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize geocode client", zap.Error(err))
	}
	if err := objectstore.Init(ctx); err != nil {
		logger.Logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// 巡检只读，变更不需要跨实例广播
	deps := bootstrap.NewDeps(database.DB(), realtime.NewHub(), cfg)
	service.Init(deps)
	closeHooks = append(closeHooks, storage.Closing("workspaces", deps.Registry))

	interval := time.Duration(cfg.LinkAuditIntervalMins) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", cfg.ServiceName+"-scheduler"),
		zap.Duration("link_audit_interval", interval),
		zap.String("environment", cfg.Environment),
	)

	// 单次巡检最长占用半个周期
	audit := schedule.NewLinkAuditScheduler(service.Audit(), interval/2)
	sched, err := audit.Start(ctx, interval)
	if err != nil {
		logger.Logger.Fatal("Failed to start link audit scheduler", zap.Error(err))
	}

	<-ctx.Done()

	if err := sched.Shutdown(); err != nil {
		logger.Logger.Error("Failed to shutdown scheduler", zap.Error(err))
	}
	logger.Logger.Info("Scheduler service shutting down gracefully")
}

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/internal/bootstrap"
	"TripMate/internal/middleware"
	"TripMate/internal/queue"
	"TripMate/internal/realtime"
	"TripMate/internal/router"
	"TripMate/internal/service"
	"TripMate/pkg/geocode"
	"TripMate/pkg/logger"
	"TripMate/pkg/objectstore"
	"TripMate/pkg/snowflake"
	"TripMate/storage"
	"TripMate/storage/database"
)

// 工作区空闲回收的检查间隔
const sweepInterval = time.Minute

func main() {
	logger.Init("server")
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

	// provider 要先于存储层，gorm/redis 的追踪插件在 Init 时挂载
	shutdownTelemetry, err := bootstrap.InitTelemetry(ctx, "server")
	if err != nil {
		logger.Logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	var closeHooks []storage.Hook
	defer func() { _ = storage.Close(closeHooks...) }()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := geocode.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize geocode client", zap.Error(err))
	}

	if err := objectstore.Init(ctx); err != nil {
		logger.Logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	origin := cfg.InstanceID
	if origin == "" {
		origin = uuid.NewString()
	}

	// 本地 hub 负责进程内分发，跨实例经 RabbitMQ 交换机同步
	hub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(hub, queue.NewChangePublisher(cfg.ChangeExchange), origin)

	deps := bootstrap.NewDeps(database.DB(), broadcaster, cfg)
	service.Init(deps)
	closeHooks = append(closeHooks, storage.Closing("workspaces", deps.Registry))

	go deps.Registry.Run(ctx, sweepInterval)

	go func() {
		if err := queue.StartInstanceConsumer(ctx, cfg.ChangeExchange, origin, broadcaster, cfg.ChangePrefetch); err != nil {
			logger.Logger.Error("Instance change consumer stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("instance", origin),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
	)

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	opts := []hertzconfig.Option{
		server.WithHostPorts(addr),
		server.WithMaxRequestBodySize(int(cfg.ImageMaxSizeBytes) + 1<<20),
	}

	var tracing []app.HandlerFunc
	if cfg.OTelEnabled {
		tracerOpt, tracerMW := middleware.NewServerTracerConfig()
		opts = append(opts, tracerOpt)
		tracing = append(tracing, tracerMW)
	}

	h := server.New(opts...)
	h.Use(tracing...)
	router.Register(h.Engine)

	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

package bootstrap

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/internal/middleware"
	dbotel "TripMate/pkg/database"
	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
	mqotel "TripMate/pkg/mq"
	tmotel "TripMate/pkg/otel"
	redisotel "TripMate/pkg/redis"
)

// InitTelemetry 初始化 provider 后再注册各组件指标，指标失败只告警
func InitTelemetry(ctx context.Context, component string) (tmotel.ShutdownFunc, error) {
	cfg := config.Cfg
	shutdown, err := tmotel.InitOpenTelemetry(ctx, tmotel.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    cfg.ServiceName + "-" + component,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return nil, err
	}

	meter := otel.Meter("tripmate")
	steps := []struct {
		name string
		init func() error
	}{
		{"domain", metrics.InitMetrics},
		{"http", func() error { return middleware.InitMetrics(meter) }},
		{"database", func() error { return dbotel.InitDatabaseMetrics(meter) }},
		{"redis", func() error { return redisotel.InitRedisMetrics(meter) }},
		{"rabbitmq", func() error { return mqotel.InitMQMetrics(meter) }},
	}
	for _, s := range steps {
		if err := s.init(); err != nil {
			logger.Logger.Warn("Failed to initialize metrics", zap.String("metrics", s.name), zap.Error(err))
		}
	}

	logger.Logger.Info("Telemetry initialized",
		zap.String("component", component),
		zap.Bool("enabled", cfg.OTelEnabled),
	)
	return shutdown, nil
}

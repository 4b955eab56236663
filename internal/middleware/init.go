package middleware

import (
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/pkg/logger"
)

// Init 按配置准备中间件用到的全局参数
func Init() error {
	if config.Cfg.RateLimitWindow > 0 {
		WriteRateLimitConfig.Window = config.Cfg.RateLimitWindow
	}
	if config.Cfg.RateLimitMax > 0 {
		WriteRateLimitConfig.MaxRequests = config.Cfg.RateLimitMax
	}
	DefaultRecoverConfig.IsProduction = config.Cfg.IsProduction()

	logger.Logger.Info("Middlewares initialized",
		zap.Bool("rate_limit", config.Cfg.RateLimitEnabled),
		zap.Int("rate_limit_window", WriteRateLimitConfig.Window),
		zap.Int("rate_limit_max", WriteRateLimitConfig.MaxRequests),
	)
	return nil
}

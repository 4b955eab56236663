package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"TripMate/pkg/logger"
	"TripMate/storage/database"
	"TripMate/storage/mq"
	"TripMate/storage/redis"
)

const closeTimeout = 15 * time.Second

// Hook 关闭流程中的一步
type Hook struct {
	Name  string
	Close func(ctx context.Context) error
}

// Closing 包装只有 Close() 的组件，例如工作区注册表
func Closing(name string, c interface{ Close() }) Hook {
	return Hook{Name: name, Close: func(context.Context) error {
		c.Close()
		return nil
	}}
}

// Close 先按顺序执行 hooks，再关闭 MQ、Redis、数据库。
// 工作区要在连接断开前停掉后台刷新；单步失败继续后面的步骤
func Close(hooks ...Hook) error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	steps := make([]Hook, 0, len(hooks)+3)
	steps = append(steps, hooks...)
	steps = append(steps,
		Hook{Name: "message queue", Close: mq.Close},
		Hook{Name: "redis", Close: redis.Close},
		Hook{Name: "database", Close: database.Close},
	)
	return shutdown(ctx, steps)
}

func shutdown(ctx context.Context, steps []Hook) error {
	logger.Logger.Info("Closing storage connections", zap.Int("steps", len(steps)))

	var errs []error
	for _, step := range steps {
		start := time.Now()
		if err := step.Close(ctx); err != nil {
			logger.Logger.Error("Failed to close component",
				zap.String("component", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("close %s: %w", step.Name, err))
			continue
		}
		logger.Logger.Info("Component closed",
			zap.String("component", step.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Logger.Info("All storage connections closed")
	return nil
}

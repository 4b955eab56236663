package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"TripMate/internal/cache"
	"TripMate/pkg/logger"
	"TripMate/storage/mq"
)

const (
	processingTTL = 5 * time.Minute
	processedTTL  = 24 * time.Hour
)

// RemoteHandler 处理其他实例发来的变更，由 realtime.Broadcaster 实现
type RemoteHandler interface {
	HandleRemote(ctx context.Context, body []byte) error
}

// Notifier 把变更转发给浏览器，由 realtime.PusherNotifier 实现
type Notifier interface {
	HandleMessage(ctx context.Context, body []byte) error
}

// StartInstanceConsumer 为当前实例声明临时队列并把变更分发到本地 hub，阻塞直到 ctx 取消
func StartInstanceConsumer(ctx context.Context, exchange, origin string, h RemoteHandler, prefetch int) error {
	queue, err := mq.DeclareInstanceQueue(exchange, mq.ChangeBindingAll)
	if err != nil {
		return fmt.Errorf("failed to declare instance queue: %w", err)
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         queue,
		ConsumerTag:   "changes_" + origin,
		PrefetchCount: prefetch,
		Handler:       h.HandleRemote,
	})
}

// StartPushConsumer worker 消费持久队列，经去重后推送
func StartPushConsumer(ctx context.Context, queue string, n Notifier, prefetch int) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         queue,
		ConsumerTag:   "change_push_consumer",
		PrefetchCount: prefetch,
		Handler:       PushHandler(n),
	})
}

// PushHandler 按 message_id 去重；处理失败时撤销标记以便重投
func PushHandler(n Notifier) mq.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		messageID := gjson.GetBytes(body, "message_id").String()
		if messageID == "" {
			return n.HandleMessage(ctx, body)
		}

		marked, err := cache.TryMarkMessageProcessing(ctx, messageID, processingTTL)
		if err != nil {
			// redis 不可用时宁可重复推送
			logger.Logger.Warn("Failed to check message status",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		} else if !marked {
			logger.Logger.Info("Change already pushed, skipping", zap.String("message_id", messageID))
			return nil
		}

		if err := n.HandleMessage(ctx, body); err != nil {
			if marked {
				if uerr := cache.UnmarkMessageProcessing(ctx, messageID); uerr != nil {
					logger.Logger.Warn("Failed to unmark message", zap.String("message_id", messageID), zap.Error(uerr))
				}
			}
			return err
		}

		if marked {
			if err := cache.MarkMessageProcessed(ctx, messageID, processedTTL); err != nil {
				logger.Logger.Warn("Failed to mark message processed", zap.String("message_id", messageID), zap.Error(err))
			}
		}
		return nil
	}
}

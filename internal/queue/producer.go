package queue

import (
	"context"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"TripMate/internal/realtime"
	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
	"TripMate/storage/mq"
)

// publishFunc 与 mq.PublishRaw 同签名，测试中替换
type publishFunc func(ctx context.Context, exchange, routingKey string, body []byte) error

// ChangePublisher 把变更发布到 topic 交换机，实现 realtime.Publisher
type ChangePublisher struct {
	exchange string
	publish  publishFunc
}

var _ realtime.Publisher = (*ChangePublisher)(nil)

func NewChangePublisher(exchange string) *ChangePublisher {
	return &ChangePublisher{exchange: exchange, publish: mq.PublishRaw}
}

func (p *ChangePublisher) PublishChange(ctx context.Context, routingKey string, body []byte) error {
	table := gjson.GetBytes(body, "table").String()

	err := p.publish(ctx, p.exchange, routingKey, body)
	metrics.RecordChangePublished(ctx, table, err)
	if err != nil {
		logger.Logger.Error("Failed to publish change",
			zap.String("exchange", p.exchange),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Debug("Published change",
		zap.String("routing_key", routingKey),
		zap.String("message_id", gjson.GetBytes(body, "message_id").String()),
	)
	return nil
}

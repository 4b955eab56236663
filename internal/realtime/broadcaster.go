package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"TripMate/internal/model"
	"TripMate/pkg/logger"
)

// Publisher 把编码后的变更发到交换机，由 internal/queue 实现
type Publisher interface {
	PublishChange(ctx context.Context, routingKey string, body []byte) error
}

// RoutingKey trip.<tripID>.<table>
func RoutingKey(tripID int64, table model.ChangeTable) string {
	return "trip." + strconv.FormatInt(tripID, 10) + "." + string(table)
}

// Broadcaster 先在本地分发，再发布给其他实例和 worker
type Broadcaster struct {
	hub    *Hub
	pub    Publisher
	origin string
}

func NewBroadcaster(hub *Hub, pub Publisher, origin string) *Broadcaster {
	return &Broadcaster{hub: hub, pub: pub, origin: origin}
}

func (b *Broadcaster) Origin() string {
	return b.origin
}

// Publish 本地订阅者总会收到通知；跨实例发布失败时返回错误
func (b *Broadcaster) Publish(ctx context.Context, msg model.ChangeMessage) error {
	msg.Origin = b.origin
	_ = b.hub.Publish(ctx, msg)

	if b.pub == nil {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := b.pub.PublishChange(ctx, RoutingKey(msg.TripID, msg.Table), body); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (b *Broadcaster) Subscribe(tripID int64, table model.ChangeTable, h Handler) func() {
	return b.hub.Subscribe(tripID, table, h)
}

// HandleRemote 处理交换机上收到的变更，跳过本实例自己发出的
func (b *Broadcaster) HandleRemote(ctx context.Context, body []byte) error {
	if gjson.GetBytes(body, "origin").String() == b.origin {
		return nil
	}

	var msg model.ChangeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// 无法解析的消息重投也没有意义
		logger.Logger.Warn("Dropping malformed change message", zap.Error(err))
		return nil
	}

	return b.hub.Publish(ctx, msg)
}

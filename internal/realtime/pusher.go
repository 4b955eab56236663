package realtime

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"TripMate/pkg/logger"
)

// Trigger 与 pusher.Client.Trigger 同签名
type Trigger interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// ChannelName 浏览器订阅的频道
func ChannelName(tripID int64) string {
	return fmt.Sprintf("trip-%d", tripID)
}

// EventName 例如 itinerary.changed
func EventName(table string) string {
	return table + ".changed"
}

// PusherNotifier 把变更转发给浏览器
type PusherNotifier struct {
	client Trigger
}

func NewPusherNotifier(client Trigger) *PusherNotifier {
	return &PusherNotifier{client: client}
}

// HandleMessage 只转发行程、表、操作和记录 ID
func (n *PusherNotifier) HandleMessage(ctx context.Context, body []byte) error {
	fields := gjson.GetManyBytes(body, "trip_id", "table", "op", "record_id")
	tripID, table := fields[0].Int(), fields[1].String()
	if tripID == 0 || table == "" {
		logger.Logger.Warn("Dropping change without trip or table", zap.ByteString("body", body))
		return nil
	}

	payload := map[string]interface{}{
		"table":     table,
		"op":        fields[2].String(),
		"record_id": fields[3].String(),
	}
	if err := n.client.Trigger(ChannelName(tripID), EventName(table), payload); err != nil {
		return fmt.Errorf("failed to trigger pusher event: %w", err)
	}
	return nil
}

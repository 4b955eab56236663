// Package realtime 行程内各表的变更通知。
// 消息只是重新拉取的信号，订阅方不依赖其内容。
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"TripMate/internal/model"
)

// Handler 收到变更时调用，必须尽快返回
type Handler func(ctx context.Context, msg model.ChangeMessage)

// Bus 发布与订阅
type Bus interface {
	Publish(ctx context.Context, msg model.ChangeMessage) error
	Subscribe(tripID int64, table model.ChangeTable, h Handler) (unsubscribe func())
}

// NewChange 构造一条变更消息，Origin 由发布方填写
func NewChange(tripID int64, table model.ChangeTable, op model.ChangeOp, recordID int64) model.ChangeMessage {
	return model.ChangeMessage{
		MessageID: uuid.NewString(),
		TripID:    tripID,
		Table:     table,
		Op:        op,
		RecordID:  recordID,
		At:        time.Now().UTC(),
	}
}

type topic struct {
	tripID int64
	table  model.ChangeTable
}

// Hub 进程内分发
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[topic]map[uint64]Handler
}

func NewHub() *Hub {
	return &Hub{subs: make(map[topic]map[uint64]Handler)}
}

// Publish 同步调用该行程该表的所有订阅者
func (h *Hub) Publish(ctx context.Context, msg model.ChangeMessage) error {
	h.mu.RLock()
	set := h.subs[topic{tripID: msg.TripID, table: msg.Table}]
	handlers := make([]Handler, 0, len(set))
	for _, fn := range set {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx, msg)
	}
	return nil
}

// Subscribe 返回的函数可重复调用
func (h *Hub) Subscribe(tripID int64, table model.ChangeTable, fn Handler) func() {
	key := topic{tripID: tripID, table: table}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]Handler)
	}
	h.subs[key][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
		})
	}
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers(tripID int64, table model.ChangeTable) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic{tripID: tripID, table: table}])
}

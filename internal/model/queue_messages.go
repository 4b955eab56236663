package model

import "time"

// ChangeTable 可订阅的表
type ChangeTable string

const (
	TableItinerary    ChangeTable = "itinerary"
	TableTickets      ChangeTable = "tickets"
	TablePreparations ChangeTable = "preparations"
	TableExpenses     ChangeTable = "expenses"
	TableInfos        ChangeTable = "infos"
	TableNotices      ChangeTable = "notices"
	TableTrips        ChangeTable = "trips"
)

// ChangeOp 变更类型
type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeMessage 一次写入后的变更通知。订阅方只把它当作重新拉取的信号，不读取具体内容
type ChangeMessage struct {
	MessageID string      `json:"message_id"` // 消息唯一ID，用于幂等性检查
	Origin    string      `json:"origin"`     // 产生变更的实例
	TripID    int64       `json:"trip_id"`
	Table     ChangeTable `json:"table"`
	Op        ChangeOp    `json:"op"`
	RecordID  int64       `json:"record_id"`
	At        time.Time   `json:"at"`
}

package store

import (
	"context"
	"time"

	"TripMate/internal/model"
)

// Lister 按行程读取整表
type Lister[T any] interface {
	ListByTrip(ctx context.Context, tripID int64) ([]T, error)
}

// Collection 一张子表的快照，顺序即拉取顺序
type Collection[T any] struct {
	table model.ChangeTable
	*Live[T]
}

func NewCollection[T any](tripID int64, table model.ChangeTable, lister Lister[T], debounce time.Duration) *Collection[T] {
	fetch := func(ctx context.Context) ([]T, error) {
		return lister.ListByTrip(ctx, tripID)
	}
	return &Collection[T]{table: table, Live: NewLive[T](string(table), fetch, debounce)}
}

// Table 订阅的表
func (c *Collection[T]) Table() model.ChangeTable {
	return c.table
}

// Items 当前快照
func (c *Collection[T]) Items() []T {
	return c.Snapshot()
}

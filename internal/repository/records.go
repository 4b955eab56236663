// Package repository 是 gorm 之上的薄封装：按行程读取、单条写入、软删除。
// 返回 gorm 原始错误或 ErrNotFound，由 service 层转换为业务错误
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在或已删除
var ErrNotFound = gorm.ErrRecordNotFound

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// 各表的默认读取顺序
const (
	OrderByID        = "id ASC"
	OrderByIDDesc    = "id DESC"
	OrderByItinerary = "day ASC, time ASC NULLS LAST, id ASC"
)

// Records 一个行程下某张表的读写，T 必须带 trip_id 列
type Records[T any] struct {
	db      *gorm.DB
	order   string
	preload map[string]func(*gorm.DB) *gorm.DB
}

// NewRecords 默认按 id 升序读取，即关联解析时的先后顺序
func NewRecords[T any](db *gorm.DB) *Records[T] {
	return &Records[T]{db: db, order: OrderByID}
}

// WithOrder 替换列表排序
func (r *Records[T]) WithOrder(order string) *Records[T] {
	r.order = order
	return r
}

// WithPreload 列表和单条读取时预加载关联，scope 可为 nil
func (r *Records[T]) WithPreload(assoc string, scope func(*gorm.DB) *gorm.DB) *Records[T] {
	if r.preload == nil {
		r.preload = make(map[string]func(*gorm.DB) *gorm.DB)
	}
	r.preload[assoc] = scope
	return r
}

func (r *Records[T]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for assoc, scope := range r.preload {
		if scope == nil {
			q = q.Preload(assoc)
			continue
		}
		q = q.Preload(assoc, scope)
	}
	return q
}

// ListByTrip 读取一个行程下的全部记录
func (r *Records[T]) ListByTrip(ctx context.Context, tripID int64) ([]T, error) {
	var out []T
	err := r.query(ctx).Where("trip_id = ?", tripID).Order(r.order).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get 读取一条记录，trip 不匹配视为不存在
func (r *Records[T]) Get(ctx context.Context, tripID, id int64) (*T, error) {
	var out T
	err := r.query(ctx).Where("trip_id = ? AND id = ?", tripID, id).First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create 插入一条记录，ID 由调用方生成
func (r *Records[T]) Create(ctx context.Context, rec *T) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Update 按列更新后重新读取，值为 nil 的列写入 NULL
func (r *Records[T]) Update(ctx context.Context, tripID, id int64, cols map[string]interface{}) (*T, error) {
	if len(cols) > 0 {
		var zero T
		res := r.db.WithContext(ctx).Model(&zero).
			Where("trip_id = ? AND id = ?", tripID, id).
			Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Get(ctx, tripID, id)
}

// Delete 软删除；指向它的关联字段保持不变
func (r *Records[T]) Delete(ctx context.Context, tripID, id int64) error {
	var zero T
	res := r.db.WithContext(ctx).Where("trip_id = ? AND id = ?", tripID, id).Delete(&zero)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"TripMate/internal/model"
)

// TripRepository 行程与参与者
type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

func participantOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// Create 连同参与者一起插入
func (r *TripRepository) Create(ctx context.Context, trip *model.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

// Get 读取行程及按 position 排序的参与者
func (r *TripRepository) Get(ctx context.Context, id int64) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.WithContext(ctx).
		Preload("Participants", participantOrder).
		Where("id = ?", id).
		First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// AddParticipant 追加参与者
func (r *TripRepository) AddParticipant(ctx context.Context, p *model.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CountParticipants 参与者人数，用于票务徽标
func (r *TripRepository) CountParticipants(ctx context.Context, tripID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Participant{}).Where("trip_id = ?", tripID).Count(&n).Error
	return n, err
}

// ListIDs 全部行程 ID，巡检任务使用
func (r *TripRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Trip{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

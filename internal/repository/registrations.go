package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TripMate/internal/model"
)

// RegistrationRepository 票据登记，同一票种同一 key 只保留一条
type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Upsert 已存在的 key 直接覆盖
func (r *RegistrationRepository) Upsert(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_type_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "code", "image_url", "uploaded_by", "updated_at"}),
	}).Create(reg).Error
}

// Delete 物理删除，释放唯一索引
func (r *RegistrationRepository) Delete(ctx context.Context, ticketTypeID int64, key string) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("ticket_type_id = ? AND key = ?", ticketTypeID, key).
		Delete(&model.Registration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByTicket 删除票种时清理其登记
func (r *RegistrationRepository) DeleteByTicket(ctx context.Context, ticketTypeID int64) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("ticket_type_id = ?", ticketTypeID).
		Delete(&model.Registration{}).Error
}

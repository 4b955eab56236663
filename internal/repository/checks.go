package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TripMate/internal/model"
)

// CheckRepository personal 准备事项的个人勾选
type CheckRepository struct {
	db *gorm.DB
}

func NewCheckRepository(db *gorm.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// Upsert 写入或覆盖某人对某事项的勾选
func (r *CheckRepository) Upsert(ctx context.Context, check *model.PreparationCheck) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "preparation_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"checked", "updated_at"}),
	}).Create(check).Error
}

// CheckedBy 返回某参与者已勾选的事项 ID 集合
func (r *CheckRepository) CheckedBy(ctx context.Context, participantID int64, preparationIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(preparationIDs))
	if len(preparationIDs) == 0 {
		return out, nil
	}

	var checks []model.PreparationCheck
	err := r.db.WithContext(ctx).
		Where("participant_id = ? AND preparation_id IN ?", participantID, preparationIDs).
		Find(&checks).Error
	if err != nil {
		return nil, err
	}
	for _, c := range checks {
		out[c.PreparationID] = c.Checked
	}
	return out, nil
}

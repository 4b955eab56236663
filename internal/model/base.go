package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 所有表共用字段，ID 由 snowflake 生成
type BaseModel struct {
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ID        int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
}

// GetID 实现 Record
func (b BaseModel) GetID() int64 {
	return b.ID
}

package model

import (
	"time"

	"TripMate/utils"
)

// Trip 行程，日程按 [StartDate, EndDate] 逐日展开
type Trip struct {
	BaseModel
	StartDate    time.Time     `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time     `gorm:"type:date;not null" json:"end_date"`
	Title        string        `gorm:"type:varchar(100);not null" json:"title"`
	Image        string        `gorm:"type:text" json:"image,omitempty"`
	Participants []Participant `gorm:"foreignKey:TripID" json:"participants"`
}

func (Trip) TableName() string {
	return "trips"
}

// DayCount 行程天数（含首尾）
func (t *Trip) DayCount() int {
	return utils.DaysBetween(t.StartDate, t.EndDate)
}

// ValidDay day 是否落在 1..DayCount
func (t *Trip) ValidDay(day int) bool {
	return day >= 1 && day <= t.DayCount()
}

// DateOf 返回第 day 天的日期
func (t *Trip) DateOf(day int) time.Time {
	return t.StartDate.AddDate(0, 0, day-1)
}

// HasParticipant 判断参与者是否属于本行程
func (t *Trip) HasParticipant(id int64) bool {
	for _, p := range t.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Participant 行程参与者
type Participant struct {
	BaseModel
	TripID   int64  `gorm:"not null;index" json:"trip_id"`
	Name     string `gorm:"type:varchar(50);not null" json:"name"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

func (Participant) TableName() string {
	return "participants"
}

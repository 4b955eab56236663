package dto

import "TripMate/internal/model"

// ========== Trip 相关 DTO ==========

// CreateTripRequest 创建行程
type CreateTripRequest struct {
	Title        string   `json:"title" validate:"required,max=100"`
	StartDate    string   `json:"start_date" validate:"required,isodate"`
	EndDate      string   `json:"end_date" validate:"required,isodate"`
	Image        string   `json:"image"`
	Participants []string `json:"participants" validate:"dive,required,max=50"`
}

// AddParticipantRequest 添加参与者
type AddParticipantRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// TripDay 行程中的一天
type TripDay struct {
	Day  int    `json:"day"`
	Date string `json:"date"`
}

// TripDetail 行程详情
type TripDetail struct {
	*model.Trip
	Days []TripDay `json:"days"`
}

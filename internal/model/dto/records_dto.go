package dto

import "TripMate/internal/model"

// ========== 关联记录 DTO ==========

// TicketRequest 创建/更新票种
type TicketRequest struct {
	Name              model.Nullable[string] `json:"name"`
	Mode              model.Nullable[string] `json:"mode"`
	LinkedItineraryID model.Nullable[int64]  `json:"linked_itinerary_id"`
}

// RegistrationRequest 登记票据
type RegistrationRequest struct {
	Type     string `json:"type" validate:"required"`
	Code     string `json:"code"`
	ImageURL string `json:"image_url"`
}

// TicketView 票种及完成状态
type TicketView struct {
	model.TicketType
	Badge           string  `json:"badge"`
	Complete        bool    `json:"complete"`
	LinkedEntryName *string `json:"linked_entry_name"`
}

// PreparationRequest 创建/更新准备事项
type PreparationRequest struct {
	Content           model.Nullable[string] `json:"content"`
	Type              model.Nullable[string] `json:"type"`
	AssignedTo        model.Nullable[int64]  `json:"assigned_to"`
	LinkedItineraryID model.Nullable[int64]  `json:"linked_itinerary_id"`
}

// CheckRequest 勾选请求
type CheckRequest struct {
	Checked bool `json:"checked"`
}

// PreparationView 当前参与者看到的准备事项
type PreparationView struct {
	model.Preparation
	CheckedByMe     bool    `json:"checked_by_me"`
	LinkedEntryName *string `json:"linked_entry_name"`
}

// ExpenseRequest 创建/更新支出
type ExpenseRequest struct {
	Title             model.Nullable[string] `json:"title"`
	Amount            model.Nullable[int64]  `json:"amount"`
	Payer             model.Nullable[string] `json:"payer"`
	Category          model.Nullable[string] `json:"category"`
	LinkedItineraryID model.Nullable[int64]  `json:"linked_itinerary_id"`
}

// ExpenseView 支出及关联条目名称
type ExpenseView struct {
	model.Expense
	LinkedEntryName *string `json:"linked_entry_name"`
}

// ExpenseSummary 账本汇总
type ExpenseSummary struct {
	Total      int64            `json:"total"`
	ByPayer    map[string]int64 `json:"by_payer"`
	ByCategory map[string]int64 `json:"by_category"`
	Count      int              `json:"count"`
}

// InfoRequest 创建/更新共享信息
type InfoRequest struct {
	Title             model.Nullable[string] `json:"title"`
	Content           model.Nullable[string] `json:"content"`
	Category          model.Nullable[string] `json:"category"`
	LinkedItineraryID model.Nullable[int64]  `json:"linked_itinerary_id"`
}

// InfoView 共享信息及关联条目名称
type InfoView struct {
	model.SharedInfo
	LinkedEntryName *string `json:"linked_entry_name"`
}

// NoticeRequest 发布公告
type NoticeRequest struct {
	Content string `json:"content" validate:"required"`
	Author  string `json:"author" validate:"max=50"`
}

// PlaceResult 地点搜索结果
type PlaceResult struct {
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	PlaceID          string  `json:"place_id"`
}

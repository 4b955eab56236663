package dto

import (
	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/routemap"
)

// ========== Itinerary 相关 DTO ==========

// CreateEntryRequest 创建日程条目
type CreateEntryRequest struct {
	Day         *int           `json:"day" validate:"required"`
	Time        *string        `json:"time" validate:"omitempty,clock"`
	Title       string         `json:"title" validate:"required"`
	Description *string        `json:"description"`
	Geocode     *model.Geocode `json:"geocode"`
	Image       *string        `json:"image"`
}

// UpdateEntryRequest 部分更新；未出现的字段保持原值，显式 null 才清空
type UpdateEntryRequest struct {
	Day            model.Nullable[int]           `json:"day"`
	Time           model.Nullable[string]        `json:"time"`
	Title          model.Nullable[string]        `json:"title"`
	Description    model.Nullable[string]        `json:"description"`
	Geocode        model.Nullable[model.Geocode] `json:"geocode"`
	Image          model.Nullable[string]        `json:"image"`
	ImagePositionX model.Nullable[float64]       `json:"image_position_x"`
	ImagePositionY model.Nullable[float64]       `json:"image_position_y"`
	ImageScale     model.Nullable[int]           `json:"image_scale"`
	IsChecked      model.Nullable[bool]          `json:"is_checked"`
}

// ToggleCheckRequest 勾选/取消勾选
type ToggleCheckRequest struct {
	Checked bool `json:"checked"`
}

// Box 预览框在页面中的渲染位置
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragSample 一次拖拽（按下-移动-抬起）的指针位置
type DragSample struct {
	PointerX float64 `json:"pointer_x"`
	PointerY float64 `json:"pointer_y"`
	Box      Box     `json:"box"`
}

// ImagePlacementRequest 调整图片位置：拖拽、滚轮、缩放按钮
type ImagePlacementRequest struct {
	Drag        *DragSample `json:"drag"`
	WheelDeltas []float64   `json:"wheel_deltas"`
	ZoomSteps   int         `json:"zoom_steps"` // 正数放大，负数缩小
}

// ImageStyle 卡片背景图样式
type ImageStyle struct {
	BackgroundPosition string `json:"background_position"`
	BackgroundSize     string `json:"background_size"`
}

// LinkedNameResponse 反向查询结果，悬空引用时 title 为 null
type LinkedNameResponse struct {
	EntryID int64   `json:"entry_id"`
	Title   *string `json:"title"`
}

// EnrichedEntry 条目、关联摘要和卡片样式；没有图片时 image_style 为 null
type EnrichedEntry struct {
	link.Enriched
	ImageStyle *ImageStyle `json:"image_style"`
}

// ItineraryDay 一天的日程
type ItineraryDay struct {
	Day     int             `json:"day"`
	Date    string          `json:"date"`
	Entries []EnrichedEntry `json:"entries"`
}

// MapControls 用户对地图的缩放操作。Zoom 为滑块绝对值，Steps 正数放大、负数缩小
type MapControls struct {
	Zoom  *int
	Steps int
}

// DayMapView 某天的地图视图
type DayMapView struct {
	Day   int            `json:"day"`
	State routemap.State `json:"state"`
	routemap.View
}

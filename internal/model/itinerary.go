package model

import "TripMate/utils"

// 图片定位参考框与缩放范围
const (
	ImageFrameWidth   = 450
	ImageFrameHeight  = 130
	ImageScaleMin     = 200
	ImageScaleMax     = 2000
	ImageScaleStep    = 50
	ImageScaleDefault = 400
)

// ItineraryEntry 日程条目，是所有关联记录指向的主干
type ItineraryEntry struct {
	BaseModel
	TripID      int64   `gorm:"not null;index:idx_itinerary_trip_day,priority:1" json:"trip_id"`
	Day         int     `gorm:"not null;index:idx_itinerary_trip_day,priority:2" json:"day"`
	Time        *string `gorm:"type:varchar(5)" json:"time"`
	Title       string  `gorm:"type:varchar(200);not null" json:"title"`
	Description *string `gorm:"type:text" json:"description"`

	// 地理编码字段要么全部有值，要么全部为空
	LocationName *string  `gorm:"type:varchar(200)" json:"location_name"`
	Address      *string  `gorm:"type:text" json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`

	Image          *string `gorm:"type:text" json:"image"`
	ImagePositionX float64 `gorm:"not null;default:0" json:"image_position_x"`
	ImagePositionY float64 `gorm:"not null;default:0" json:"image_position_y"`
	ImageScale     int     `gorm:"not null;default:400" json:"image_scale"`

	IsChecked bool `gorm:"not null;default:false" json:"is_checked"`
}

func (ItineraryEntry) TableName() string {
	return "itinerary_entries"
}

// Geocode 地点信息
type Geocode struct {
	LocationName string  `json:"location_name"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Valid 坐标范围检查
func (g Geocode) Valid() bool {
	return utils.IsValidLatitude(g.Latitude) && utils.IsValidLongitude(g.Longitude)
}

// HasCoordinates 经纬度都存在且为有限数
func (e *ItineraryEntry) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil &&
		utils.IsFinite(*e.Latitude) && utils.IsFinite(*e.Longitude)
}

// Geocode 返回条目的地点信息，没有时返回 nil
func (e *ItineraryEntry) Geocode() *Geocode {
	if !e.HasCoordinates() {
		return nil
	}
	g := &Geocode{Latitude: *e.Latitude, Longitude: *e.Longitude}
	if e.LocationName != nil {
		g.LocationName = *e.LocationName
	}
	if e.Address != nil {
		g.Address = *e.Address
	}
	return g
}

// SetGeocode 整体替换地点信息，nil 表示清空
func (e *ItineraryEntry) SetGeocode(g *Geocode) {
	if g == nil {
		e.LocationName, e.Address, e.Latitude, e.Longitude = nil, nil, nil, nil
		return
	}
	name, addr, lat, lng := g.LocationName, g.Address, g.Latitude, g.Longitude
	e.LocationName, e.Address, e.Latitude, e.Longitude = &name, &addr, &lat, &lng
}

// ResetImagePlacement 恢复默认图片定位
func (e *ItineraryEntry) ResetImagePlacement() {
	e.ImagePositionX = 0
	e.ImagePositionY = 0
	e.ImageScale = ImageScaleDefault
}

// TimeValue 无时间时返回空串
func (e *ItineraryEntry) TimeValue() string {
	if e.Time == nil {
		return ""
	}
	return *e.Time
}

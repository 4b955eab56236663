package routemap

import "math"

const (
	// FitPadding 视野四周留白（像素）
	FitPadding = 50
	// MaxAutoZoom 自动适配时的最大缩放，避免两个相邻点放得过大
	MaxAutoZoom = 15
	// MinZoom / MaxZoom 用户手动缩放的范围
	MinZoom = 3
	MaxZoom = 20

	tileSize = 256
)

// Size 地图视口像素尺寸
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ClampZoom 限制在 [MinZoom, MaxZoom]
func ClampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// FitZoom Web Mercator 下能完整容纳 bounds 的最大整数缩放级别
func FitZoom(b Bounds, size Size, padding int) int {
	width := float64(size.Width - 2*padding)
	height := float64(size.Height - 2*padding)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	latFraction := (mercatorY(b.NorthEast.Lat) - mercatorY(b.SouthWest.Lat)) / math.Pi
	lngDiff := b.NorthEast.Lng - b.SouthWest.Lng
	if lngDiff < 0 {
		lngDiff += 360
	}
	lngFraction := lngDiff / 360

	return minInt(zoomFor(height, latFraction), zoomFor(width, lngFraction), MaxZoom)
}

func mercatorY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	radX2 := math.Log((1+sin)/(1-sin)) / 2
	return math.Max(math.Min(radX2, math.Pi), -math.Pi) / 2
}

func zoomFor(px, fraction float64) int {
	if fraction <= 0 {
		return MaxZoom
	}
	return int(math.Floor(math.Log2(px / tileSize / fraction)))
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

package routemap

import "context"

// Overlay 地图上可移除的元素
type Overlay interface {
	Remove()
}

// RouteOverlay 路线折线，可更新箭头偏移
type RouteOverlay interface {
	Overlay
	SetArrowOffset(offset int)
}

// Surface 地图渲染面，由地图服务商实现
type Surface interface {
	PlaceMarker(m Marker) Overlay
	DrawRoute(path []LatLng, style ArrowStyle) RouteOverlay
	FitBounds(b Bounds, padding int)
	Zoom() int
	SetZoom(z int)
}

// Loader 初始化地图渲染面；缺少凭证或网络失败时返回错误
type Loader func(ctx context.Context) (Surface, error)

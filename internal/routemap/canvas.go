package routemap

import (
	"sort"
	"sync"
)

// Canvas 记录型渲染面，服务端用它生成地图视图交给客户端绘制
type Canvas struct {
	size Size

	mu          sync.Mutex
	nextID      int
	markers     map[int]Marker
	path        []LatLng
	arrow       *ArrowStyle
	arrowOffset int
	bounds      *Bounds
	zoom        int
}

func NewCanvas(size Size) *Canvas {
	return &Canvas{size: size, markers: make(map[int]Marker), zoom: MinZoom}
}

type canvasMarker struct {
	c  *Canvas
	id int
}

func (m canvasMarker) Remove() {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	delete(m.c.markers, m.id)
}

type canvasRoute struct {
	c *Canvas
}

func (r canvasRoute) Remove() {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	r.c.path, r.c.arrow, r.c.arrowOffset = nil, nil, 0
}

func (r canvasRoute) SetArrowOffset(offset int) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	r.c.arrowOffset = offset
}

func (c *Canvas) PlaceMarker(m Marker) Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.markers[c.nextID] = m
	return canvasMarker{c: c, id: c.nextID}
}

func (c *Canvas) DrawRoute(path []LatLng, style ArrowStyle) RouteOverlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = append([]LatLng(nil), path...)
	c.arrow = &style
	c.arrowOffset = 0
	return canvasRoute{c: c}
}

func (c *Canvas) FitBounds(b Bounds, padding int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = &b
	c.zoom = ClampZoom(FitZoom(b, c.size, padding))
}

func (c *Canvas) Zoom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *Canvas) SetZoom(z int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = z
}

// View 客户端渲染所需的全部数据
type View struct {
	Markers []Marker    `json:"markers"`
	Path    []LatLng    `json:"path"`
	Arrow   *ArrowStyle `json:"arrow,omitempty"`
	Bounds  *Bounds     `json:"bounds,omitempty"`
	Center  *LatLng     `json:"center,omitempty"`
	Zoom    int         `json:"zoom"`
	MinZoom int         `json:"min_zoom"`
	MaxZoom int         `json:"max_zoom"`
	Size    Size        `json:"size"`
}

// View 当前画面快照，标记按 Label 排序
func (c *Canvas) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Markers: make([]Marker, 0, len(c.markers)),
		Path:    append([]LatLng{}, c.path...),
		Arrow:   c.arrow,
		Zoom:    c.zoom,
		MinZoom: MinZoom,
		MaxZoom: MaxZoom,
		Size:    c.size,
	}
	for _, m := range c.markers {
		v.Markers = append(v.Markers, m)
	}
	sort.Slice(v.Markers, func(i, j int) bool { return v.Markers[i].Label < v.Markers[j].Label })

	if c.bounds != nil {
		b := *c.bounds
		center := b.Center()
		v.Bounds, v.Center = &b, &center
	}
	return v
}

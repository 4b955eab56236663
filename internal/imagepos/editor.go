// Package imagepos 把预览框上的拖拽/滚轮手势换算成 450×130 参考框中的背景图定位。
// 存储值经由百分比换算，因此与预览框实际像素尺寸无关。
package imagepos

import (
	"strconv"

	"TripMate/internal/model"
)

// Placement 背景图定位：参考框像素坐标 + 背景宽度像素
type Placement struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale int     `json:"scale"`
}

// Default 无图片时的默认定位
func Default() Placement {
	return Placement{X: 0, Y: 0, Scale: model.ImageScaleDefault}
}

// Of 读取条目上的定位；库里的 0 表示未设置，取默认宽度
func Of(e *model.ItineraryEntry) Placement {
	scale := e.ImageScale
	if scale == 0 {
		scale = model.ImageScaleDefault
	}
	return Placement{X: e.ImagePositionX, Y: e.ImagePositionY, Scale: ClampScale(scale)}
}

// Apply 写回条目
func (p Placement) Apply(e *model.ItineraryEntry) {
	e.ImagePositionX = p.X
	e.ImagePositionY = p.Y
	e.ImageScale = p.Scale
}

// ClampScale 限制在 [200, 2000]
func ClampScale(scale int) int {
	switch {
	case scale < model.ImageScaleMin:
		return model.ImageScaleMin
	case scale > model.ImageScaleMax:
		return model.ImageScaleMax
	}
	return scale
}

// Rect 预览元素当前的渲染位置和尺寸
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// ToReference 指针位置 → 预览框百分比 → 参考框坐标
func ToReference(pointerX, pointerY float64, box Rect) (float64, float64, bool) {
	if box.Width <= 0 || box.Height <= 0 {
		return 0, 0, false
	}
	px := clampPercent((pointerX - box.Left) / box.Width * 100)
	py := clampPercent((pointerY - box.Top) / box.Height * 100)
	return px / 100 * model.ImageFrameWidth, py / 100 * model.ImageFrameHeight, true
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Style 卡片上的 background-position / background-size
type Style struct {
	Position string
	Size     string
}

// CSS 与编辑器同一套百分比公式
func (p Placement) CSS() Style {
	return Style{
		Position: percent(p.X/model.ImageFrameWidth*100) + " " + percent(p.Y/model.ImageFrameHeight*100),
		Size:     strconv.Itoa(p.Scale) + "px",
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// Editor 单个条目的拖拽/缩放状态
type Editor struct {
	placement Placement
	dragging  bool
}

func NewEditor(p Placement) *Editor {
	p.Scale = ClampScale(p.Scale)
	return &Editor{placement: p}
}

func (e *Editor) Placement() Placement {
	return e.placement
}

func (e *Editor) Dragging() bool {
	return e.dragging
}

// PointerDown 进入拖拽状态
func (e *Editor) PointerDown() {
	e.dragging = true
}

// PointerMove 拖拽中才更新定位，返回是否发生变化
func (e *Editor) PointerMove(pointerX, pointerY float64, box Rect) bool {
	if !e.dragging {
		return false
	}
	x, y, ok := ToReference(pointerX, pointerY, box)
	if !ok {
		return false
	}
	e.placement.X, e.placement.Y = x, y
	return true
}

// PointerUp 结束拖拽
func (e *Editor) PointerUp() {
	e.dragging = false
}

func (e *Editor) ZoomIn() {
	e.placement.Scale = ClampScale(e.placement.Scale + model.ImageScaleStep)
}

func (e *Editor) ZoomOut() {
	e.placement.Scale = ClampScale(e.placement.Scale - model.ImageScaleStep)
}

// Wheel 向上滚放大，向下滚缩小，每次一档
func (e *Editor) Wheel(deltaY float64) {
	switch {
	case deltaY < 0:
		e.ZoomIn()
	case deltaY > 0:
		e.ZoomOut()
	}
}

// RemoveImage 移除图片后三项回到默认值
func (e *Editor) RemoveImage() {
	e.placement = Default()
	e.dragging = false
}

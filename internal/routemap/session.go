package routemap

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"TripMate/internal/model"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
)

// State 地图组件状态
type State string

const (
	StateIdle        State = "idle"
	StateReady       State = "ready"
	StateEmpty       State = "empty"       // 当天没有带坐标的条目
	StateUnavailable State = "unavailable" // 地图服务初始化失败
)

// Session 一个地图组件的生命周期：标记、路线、动画定时器和缩放状态
type Session struct {
	load     Loader
	animator *Animator
	style    ArrowStyle

	mu        sync.Mutex
	surface   Surface
	markers   []Overlay
	route     RouteOverlay
	plan      Plan
	signature string
	state     State
}

// Option Session 选项
type Option func(*Session)

// WithAnimator 替换箭头动画；传 nil 表示静态路线
func WithAnimator(a *Animator) Option {
	return func(s *Session) {
		s.animator = a
	}
}

func NewSession(load Loader, opts ...Option) *Session {
	s := &Session{
		load:     load,
		style:    DefaultArrowStyle(),
		animator: NewAnimator(DefaultArrowStyle()),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show 展示当天条目。条目集合不变时保持现有标记和用户缩放
func (s *Session) Show(ctx context.Context, entries []model.ItineraryEntry) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		surface, err := s.load(ctx)
		if err != nil {
			s.state = StateUnavailable
			logger.Logger.Warn("Map surface unavailable", zap.Error(err))
			return s.state, fmt.Errorf("failed to load map surface: %w: %v", pkgerrors.GeocodeUnavailable, err)
		}
		s.surface = surface
	}

	plan := Build(entries)
	if s.state != StateIdle && s.state != StateUnavailable && plan.Signature == s.signature {
		return s.state, nil
	}

	s.clear()
	s.plan = plan
	s.signature = plan.Signature

	if plan.Empty() {
		s.state = StateEmpty
		return s.state, nil
	}

	s.markers = make([]Overlay, 0, len(plan.Markers))
	for _, m := range plan.Markers {
		s.markers = append(s.markers, s.surface.PlaceMarker(m))
	}

	if plan.HasRoute() {
		route := s.surface.DrawRoute(plan.Path, s.style)
		s.route = route
		if s.animator != nil {
			s.animator.Start(route.SetArrowOffset)
		}
	}

	s.surface.FitBounds(plan.Bounds, FitPadding)
	if s.surface.Zoom() > MaxAutoZoom {
		s.surface.SetZoom(MaxAutoZoom)
	}

	s.state = StateReady
	return s.state, nil
}

// clear 停止动画并移除旧的标记和路线，调用方持有锁
func (s *Session) clear() {
	if s.animator != nil {
		s.animator.Stop()
	}
	if s.route != nil {
		s.route.Remove()
		s.route = nil
	}
	for _, m := range s.markers {
		m.Remove()
	}
	s.markers = nil
}

// ZoomIn 放大一级
func (s *Session) ZoomIn() int {
	return s.adjustZoom(1)
}

// ZoomOut 缩小一级
func (s *Session) ZoomOut() int {
	return s.adjustZoom(-1)
}

func (s *Session) adjustZoom(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return 0
	}
	z := ClampZoom(s.surface.Zoom() + delta)
	s.surface.SetZoom(z)
	return z
}

// SetZoom 滑块设置缩放，超出范围时截断
func (s *Session) SetZoom(z int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return 0
	}
	z = ClampZoom(z)
	s.surface.SetZoom(z)
	return z
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Plan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Close 组件卸载时调用，释放定时器和所有覆盖物
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.signature = ""
	s.state = StateIdle
}

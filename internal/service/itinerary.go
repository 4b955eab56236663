package service

import (
	"context"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"TripMate/internal/imagepos"
	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/routemap"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/objectstore"
)

type ItineraryService struct {
	deps Deps
}

// List 按天分组的条目及关联摘要；loading 表示仍有拉取未返回
func (s *ItineraryService) List(ctx context.Context, tripID int64) ([]dto.ItineraryDay, bool, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, false, err
	}

	trip := w.Itinerary.Trip()
	byDay := make(map[int][]dto.EnrichedEntry)
	for _, e := range w.Enriched(ctx) {
		byDay[e.Day] = append(byDay[e.Day], enrichedEntry(e))
	}

	// 行程范围内的每一天都返回，范围外的历史条目附在后面
	days := make([]dto.ItineraryDay, 0, trip.DayCount())
	for d := 1; d <= trip.DayCount(); d++ {
		days = append(days, itineraryDay(trip, d, byDay[d]))
		delete(byDay, d)
	}
	extra := make([]int, 0, len(byDay))
	for d := range byDay {
		extra = append(extra, d)
	}
	sort.Ints(extra)
	for _, d := range extra {
		days = append(days, itineraryDay(trip, d, byDay[d]))
	}

	return days, w.Loading(), nil
}

func itineraryDay(trip *model.Trip, day int, entries []dto.EnrichedEntry) dto.ItineraryDay {
	if entries == nil {
		entries = []dto.EnrichedEntry{}
	}
	return dto.ItineraryDay{Day: day, Date: formatDate(trip.DateOf(day)), Entries: entries}
}

func enrichedEntry(e link.Enriched) dto.EnrichedEntry {
	out := dto.EnrichedEntry{Enriched: e}
	if e.Image != nil && *e.Image != "" {
		css := imagepos.Of(&e.ItineraryEntry).CSS()
		out.ImageStyle = &dto.ImageStyle{BackgroundPosition: css.Position, BackgroundSize: css.Size}
	}
	return out
}

func (s *ItineraryService) Create(ctx context.Context, tripID int64, req dto.CreateEntryRequest) (*dto.EnrichedEntry, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	entry, err := w.Itinerary.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.view(w.Collections(), entry), nil
}

func (s *ItineraryService) Update(ctx context.Context, tripID, entryID int64, req dto.UpdateEntryRequest) (*dto.EnrichedEntry, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	entry, err := w.Itinerary.Update(ctx, entryID, req)
	if err != nil {
		return nil, err
	}
	return s.view(w.Collections(), entry), nil
}

// Remove 删除条目，关联记录保留悬空引用
func (s *ItineraryService) Remove(ctx context.Context, tripID, entryID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	return w.Itinerary.Remove(ctx, entryID)
}

func (s *ItineraryService) ToggleCheck(ctx context.Context, tripID, entryID int64, checked bool) (*dto.EnrichedEntry, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	entry, err := w.Itinerary.ToggleCheck(ctx, entryID, checked)
	if err != nil {
		return nil, err
	}
	return s.view(w.Collections(), entry), nil
}

// AdjustImage 在已保存的定位上回放拖拽、滚轮和缩放按钮，然后保存
func (s *ItineraryService) AdjustImage(ctx context.Context, tripID, entryID int64, req dto.ImagePlacementRequest) (*dto.EnrichedEntry, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	entry, ok := w.Itinerary.Entry(entryID)
	if !ok {
		return nil, pkgerrors.EntryNotFound
	}
	if entry.Image == nil || *entry.Image == "" {
		return nil, pkgerrors.ValidationFailed.WithMessage("entry has no image")
	}

	editor := imagepos.NewEditor(imagepos.Of(entry))
	if d := req.Drag; d != nil {
		editor.PointerDown()
		editor.PointerMove(d.PointerX, d.PointerY, imagepos.Rect{
			Left:   d.Box.Left,
			Top:    d.Box.Top,
			Width:  d.Box.Width,
			Height: d.Box.Height,
		})
		editor.PointerUp()
	}
	for _, delta := range req.WheelDeltas {
		editor.Wheel(delta)
	}
	for i := 0; i < req.ZoomSteps; i++ {
		editor.ZoomIn()
	}
	for i := 0; i > req.ZoomSteps; i-- {
		editor.ZoomOut()
	}

	updated, err := w.Itinerary.SetImagePlacement(ctx, entryID, editor.Placement())
	if err != nil {
		return nil, err
	}
	return s.view(w.Collections(), updated), nil
}

// UploadImage 上传到对象存储后把 URL 写回条目，定位保持不变
func (s *ItineraryService) UploadImage(ctx context.Context, tripID, entryID int64, filename, contentType string, size int64, body io.Reader) (*dto.EnrichedEntry, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, pkgerrors.ValidationFailed.WithMessage("file must be an image")
	}
	if s.deps.ImageMaxBytes > 0 && size > s.deps.ImageMaxBytes {
		return nil, pkgerrors.ValidationFailed.WithMessage("image exceeds %d bytes", s.deps.ImageMaxBytes)
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Itinerary.Entry(entryID); !ok {
		return nil, pkgerrors.EntryNotFound
	}

	key := objectstore.EntryImageKey(tripID, entryID, filename)
	url, err := s.deps.Objects.Put(ctx, key, contentType, body, size)
	if err != nil {
		logger.Logger.Warn("Failed to upload entry image",
			zap.Int64("trip_id", tripID),
			zap.Int64("entry_id", entryID),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	entry, err := w.Itinerary.Update(ctx, entryID, dto.UpdateEntryRequest{Image: model.Some(url)})
	if err != nil {
		return nil, err
	}
	return s.view(w.Collections(), entry), nil
}

// RemoveImage 移除图片，定位回到默认值
func (s *ItineraryService) RemoveImage(ctx context.Context, tripID, entryID int64) (*dto.EnrichedEntry, error) {
	return s.Update(ctx, tripID, entryID, dto.UpdateEntryRequest{Image: model.Null[string]()})
}

// LinkedName 反向查询条目标题，悬空时 title 为 null
func (s *ItineraryService) LinkedName(ctx context.Context, tripID, entryID int64) (*dto.LinkedNameResponse, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	return &dto.LinkedNameResponse{
		EntryID: entryID,
		Title:   link.NamePtr(w.Itinerary.Days(), &entryID),
	}, nil
}

// DayMap 当天的地图视图；地图服务未配置时返回 GeocodeUnavailable
func (s *ItineraryService) DayMap(ctx context.Context, tripID int64, day int, controls dto.MapControls) (*dto.DayMapView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	trip := w.Itinerary.Trip()
	if !trip.ValidDay(day) {
		return nil, pkgerrors.DayOutOfRange.WithMessage("day %d is outside 1..%d", day, trip.DayCount())
	}

	canvas := routemap.NewCanvas(s.deps.MapSize)
	session := routemap.NewSession(func(context.Context) (routemap.Surface, error) {
		if s.deps.Geocoder == nil || !s.deps.Geocoder.Available() {
			return nil, pkgerrors.GeocodeUnavailable
		}
		return canvas, nil
	}, routemap.WithAnimator(nil))
	defer session.Close()

	state, err := session.Show(ctx, w.Itinerary.Day(day))
	if err != nil {
		return nil, err
	}
	if state == routemap.StateReady {
		if controls.Zoom != nil {
			session.SetZoom(*controls.Zoom)
		}
		for i := 0; i < controls.Steps; i++ {
			session.ZoomIn()
		}
		for i := 0; i > controls.Steps; i-- {
			session.ZoomOut()
		}
	}

	return &dto.DayMapView{Day: day, State: state, View: canvas.View()}, nil
}

func (s *ItineraryService) view(c link.Collections, entry *model.ItineraryEntry) *dto.EnrichedEntry {
	e := enrichedEntry(link.Enriched{ItineraryEntry: *entry, Links: link.Resolve(entry.ID, c)})
	return &e
}

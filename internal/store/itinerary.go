package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"TripMate/internal/imagepos"
	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/repository"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/validation"
	"TripMate/utils"
)

// EntryRepository 日程条目的持久化
type EntryRepository interface {
	ListByTrip(ctx context.Context, tripID int64) ([]model.ItineraryEntry, error)
	Get(ctx context.Context, tripID, id int64) (*model.ItineraryEntry, error)
	Create(ctx context.Context, entry *model.ItineraryEntry) error
	Update(ctx context.Context, tripID, id int64, cols map[string]interface{}) (*model.ItineraryEntry, error)
	Delete(ctx context.Context, tripID, id int64) error
}

// TripLoader 读取行程元数据
type TripLoader interface {
	Get(ctx context.Context, id int64) (*model.Trip, error)
}

// ChangeFunc 写入成功后发布变更
type ChangeFunc func(ctx context.Context, table model.ChangeTable, op model.ChangeOp, recordID int64)

// ItineraryConfig ItineraryStore 的依赖
type ItineraryConfig struct {
	Repo     EntryRepository
	Trips    TripLoader
	NewID    func() (int64, error)
	Changed  ChangeFunc
	Debounce time.Duration
}

// ItineraryStore 一个行程的日程快照及其写入入口
type ItineraryStore struct {
	tripID  int64
	repo    EntryRepository
	trips   TripLoader
	newID   func() (int64, error)
	changed ChangeFunc
	live    *Live[model.ItineraryEntry]

	tripMu sync.RWMutex
	trip   *model.Trip
}

func NewItineraryStore(tripID int64, cfg ItineraryConfig) *ItineraryStore {
	s := &ItineraryStore{
		tripID:  tripID,
		repo:    cfg.Repo,
		trips:   cfg.Trips,
		newID:   cfg.NewID,
		changed: cfg.Changed,
	}
	s.live = NewLive[model.ItineraryEntry](string(model.TableItinerary), func(ctx context.Context) ([]model.ItineraryEntry, error) {
		return s.repo.ListByTrip(ctx, s.tripID)
	}, cfg.Debounce)
	return s
}

func (s *ItineraryStore) TripID() int64 {
	return s.tripID
}

// LoadTrip 读取行程元数据，供日期范围校验和分天展示
func (s *ItineraryStore) LoadTrip(ctx context.Context) error {
	trip, err := s.trips.Get(ctx, s.tripID)
	if err != nil {
		if repository.IsNotFound(err) {
			return pkgerrors.TripNotFound
		}
		return pkgerrors.Persistence("trip.get", err)
	}

	s.tripMu.Lock()
	s.trip = trip
	s.tripMu.Unlock()
	return nil
}

// Trip 最近一次读取的行程，未读取时为 nil
func (s *ItineraryStore) Trip() *model.Trip {
	s.tripMu.RLock()
	defer s.tripMu.RUnlock()
	return s.trip
}

func (s *ItineraryStore) ensureTrip(ctx context.Context) (*model.Trip, error) {
	if trip := s.Trip(); trip != nil {
		return trip, nil
	}
	if err := s.LoadTrip(ctx); err != nil {
		return nil, err
	}
	return s.Trip(), nil
}

// Refresh 整表重新拉取
func (s *ItineraryStore) Refresh(ctx context.Context) error {
	if err := s.live.Refresh(ctx); err != nil {
		return pkgerrors.Persistence("itinerary.list", err)
	}
	return nil
}

// Notify 收到变更通知时调用
func (s *ItineraryStore) Notify(ctx context.Context) {
	s.live.Notify(ctx)
}

func (s *ItineraryStore) Wait() {
	s.live.Wait()
}

func (s *ItineraryStore) Loading() bool {
	return s.live.Loading()
}

// Entries 全部条目，按 day、time（空值在后）、id 排序
func (s *ItineraryStore) Entries() []model.ItineraryEntry {
	return s.live.Snapshot()
}

// Entry 从快照中查找
func (s *ItineraryStore) Entry(id int64) (*model.ItineraryEntry, bool) {
	for _, e := range s.live.Snapshot() {
		if e.ID == id {
			return &e, true
		}
	}
	return nil, false
}

// Days 按天分组
func (s *ItineraryStore) Days() map[int][]model.ItineraryEntry {
	return link.GroupByDay(s.Entries())
}

// Day 某一天的条目
func (s *ItineraryStore) Day(day int) []model.ItineraryEntry {
	return s.Days()[day]
}

// Create 新建条目。校验失败时不会访问存储
func (s *ItineraryStore) Create(ctx context.Context, input dto.CreateEntryRequest) (*model.ItineraryEntry, error) {
	if input.Time != nil && *input.Time == "" {
		input.Time = nil
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.TitleRequired
	}
	if input.Geocode != nil && !input.Geocode.Valid() {
		return nil, pkgerrors.InvalidCoordinates
	}

	trip, err := s.ensureTrip(ctx)
	if err != nil {
		return nil, err
	}
	if !trip.ValidDay(*input.Day) {
		return nil, pkgerrors.DayOutOfRange.WithMessage("day %d is outside 1..%d", *input.Day, trip.DayCount())
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate entry id: %w", err)
	}

	entry := &model.ItineraryEntry{
		TripID:      s.tripID,
		Day:         *input.Day,
		Time:        input.Time,
		Title:       title,
		Description: input.Description,
		Image:       input.Image,
		ImageScale:  model.ImageScaleDefault,
	}
	entry.ID = id
	entry.SetGeocode(input.Geocode)

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Persistence("itinerary.create", err)
	}

	s.afterWrite(ctx, model.OpInsert, id)
	if fresh, ok := s.Entry(id); ok {
		return fresh, nil
	}
	return entry, nil
}

// Update 合并部分字段。未出现的字段保持原值，显式 null 清空
func (s *ItineraryStore) Update(ctx context.Context, id int64, patch dto.UpdateEntryRequest) (*model.ItineraryEntry, error) {
	cols, err := s.patchColumns(ctx, patch)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		entry, err := s.repo.Get(ctx, s.tripID, id)
		if err != nil {
			return nil, entryError("itinerary.get", err)
		}
		return entry, nil
	}
	return s.write(ctx, id, cols)
}

// ToggleCheck 设置完成状态
func (s *ItineraryStore) ToggleCheck(ctx context.Context, id int64, checked bool) (*model.ItineraryEntry, error) {
	return s.write(ctx, id, map[string]interface{}{"is_checked": checked})
}

// SetImagePlacement 保存编辑器给出的定位
func (s *ItineraryStore) SetImagePlacement(ctx context.Context, id int64, p imagepos.Placement) (*model.ItineraryEntry, error) {
	return s.write(ctx, id, placementColumns(p))
}

// Remove 删除条目，不级联；指向它的记录从此视为未关联
func (s *ItineraryStore) Remove(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, s.tripID, id); err != nil {
		return entryError("itinerary.delete", err)
	}
	s.afterWrite(ctx, model.OpDelete, id)
	return nil
}

func (s *ItineraryStore) write(ctx context.Context, id int64, cols map[string]interface{}) (*model.ItineraryEntry, error) {
	entry, err := s.repo.Update(ctx, s.tripID, id, cols)
	if err != nil {
		return nil, entryError("itinerary.update", err)
	}

	s.afterWrite(ctx, model.OpUpdate, id)
	if fresh, ok := s.Entry(id); ok {
		return fresh, nil
	}
	return entry, nil
}

// afterWrite 发布变更并重新拉取；拉取失败只记录日志，写入本身已成功
func (s *ItineraryStore) afterWrite(ctx context.Context, op model.ChangeOp, id int64) {
	if s.changed != nil {
		s.changed(ctx, model.TableItinerary, op, id)
	}
	if err := s.Refresh(ctx); err != nil {
		logger.Logger.Warn("Failed to refresh itinerary after write",
			zap.Int64("trip_id", s.tripID),
			zap.Int64("entry_id", id),
			zap.Error(err),
		)
	}
}

func entryError(op string, err error) error {
	if repository.IsNotFound(err) {
		return pkgerrors.EntryNotFound
	}
	return pkgerrors.Persistence(op, err)
}

func placementColumns(p imagepos.Placement) map[string]interface{} {
	return map[string]interface{}{
		"image_position_x": p.X,
		"image_position_y": p.Y,
		"image_scale":      imagepos.ClampScale(p.Scale),
	}
}

func (s *ItineraryStore) patchColumns(ctx context.Context, patch dto.UpdateEntryRequest) (map[string]interface{}, error) {
	cols := make(map[string]interface{})

	if patch.Title.Set {
		if patch.Title.IsNull() || strings.TrimSpace(*patch.Title.Value) == "" {
			return nil, pkgerrors.TitleRequired
		}
		cols["title"] = strings.TrimSpace(*patch.Title.Value)
	}

	if patch.Day.Set {
		if patch.Day.IsNull() {
			return nil, pkgerrors.DayRequired
		}
		trip, err := s.ensureTrip(ctx)
		if err != nil {
			return nil, err
		}
		if day := *patch.Day.Value; !trip.ValidDay(day) {
			return nil, pkgerrors.DayOutOfRange.WithMessage("day %d is outside 1..%d", day, trip.DayCount())
		}
		cols["day"] = *patch.Day.Value
	}

	if patch.Time.Set {
		switch {
		case patch.Time.IsNull() || *patch.Time.Value == "":
			cols["time"] = nil
		case !utils.IsValidClock(*patch.Time.Value):
			return nil, pkgerrors.InvalidTime
		default:
			cols["time"] = *patch.Time.Value
		}
	}

	if patch.Description.Set {
		cols["description"] = patch.Description.Value
	}

	// 地点四个字段整体替换或整体清空
	if patch.Geocode.Set {
		if patch.Geocode.IsNull() {
			cols["location_name"], cols["address"], cols["latitude"], cols["longitude"] = nil, nil, nil, nil
		} else {
			g := *patch.Geocode.Value
			if !g.Valid() {
				return nil, pkgerrors.InvalidCoordinates
			}
			cols["location_name"], cols["address"] = g.LocationName, g.Address
			cols["latitude"], cols["longitude"] = g.Latitude, g.Longitude
		}
	}

	for col, v := range map[string]model.Nullable[float64]{
		"image_position_x": patch.ImagePositionX,
		"image_position_y": patch.ImagePositionY,
	} {
		if !v.Set {
			continue
		}
		if v.IsNull() {
			cols[col] = 0.0
			continue
		}
		if math.IsNaN(*v.Value) || math.IsInf(*v.Value, 0) {
			return nil, pkgerrors.ValidationFailed.WithMessage("%s must be a finite number", col)
		}
		cols[col] = *v.Value
	}

	if patch.ImageScale.Set {
		scale := model.ImageScaleDefault
		if !patch.ImageScale.IsNull() {
			scale = *patch.ImageScale.Value
		}
		cols["image_scale"] = imagepos.ClampScale(scale)
	}

	// 移除图片同时复位定位，覆盖同一请求里的定位字段
	if patch.Image.Set {
		if patch.Image.IsNull() {
			cols["image"] = nil
			for col, v := range placementColumns(imagepos.Default()) {
				cols[col] = v
			}
		} else {
			cols["image"] = *patch.Image.Value
		}
	}

	if patch.IsChecked.Set {
		cols["is_checked"] = !patch.IsChecked.IsNull() && *patch.IsChecked.Value
	}

	return cols, nil
}

package service

import (
	"context"
	"strings"

	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/store"
	pkgerrors "TripMate/pkg/errors"
)

// InfoService 共享信息，类别为开放集合（Tip、Info、Warning、Note 之外也接受）
type InfoService struct {
	deps  Deps
	table childTable[model.SharedInfo]
}

const defaultInfoCategory = "Info"

func (s *InfoService) List(ctx context.Context, tripID int64) ([]dto.InfoView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	days := w.Itinerary.Days()
	items := s.table.items(w)
	out := make([]dto.InfoView, 0, len(items))
	for _, i := range items {
		out = append(out, dto.InfoView{SharedInfo: i, LinkedEntryName: link.NamePtr(days, i.LinkedItineraryID)})
	}
	return out, nil
}

func (s *InfoService) Create(ctx context.Context, tripID int64, req dto.InfoRequest) (*dto.InfoView, error) {
	if !req.Title.Set || req.Title.IsNull() || strings.TrimSpace(*req.Title.Value) == "" {
		return nil, pkgerrors.TitleRequired
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	info := &model.SharedInfo{
		TripID:   tripID,
		Title:    strings.TrimSpace(*req.Title.Value),
		Category: defaultInfoCategory,
	}
	info.ID = id
	if req.Content.Set && !req.Content.IsNull() {
		info.Content = *req.Content.Value
	}
	if req.Category.Set && !req.Category.IsNull() && strings.TrimSpace(*req.Category.Value) != "" {
		info.Category = strings.TrimSpace(*req.Category.Value)
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if req.LinkedItineraryID.Set {
		info.LinkedItineraryID = req.LinkedItineraryID.Value
	}

	if err := s.table.create(ctx, w, info); err != nil {
		return nil, err
	}
	return s.current(ctx, w, id)
}

func (s *InfoService) Update(ctx context.Context, tripID, infoID int64, req dto.InfoRequest) (*dto.InfoView, error) {
	cols := make(map[string]interface{})
	if req.Title.Set {
		if req.Title.IsNull() || strings.TrimSpace(*req.Title.Value) == "" {
			return nil, pkgerrors.TitleRequired
		}
		cols["title"] = strings.TrimSpace(*req.Title.Value)
	}
	if req.Content.Set {
		content := ""
		if !req.Content.IsNull() {
			content = *req.Content.Value
		}
		cols["content"] = content
	}
	if req.Category.Set {
		category := defaultInfoCategory
		if !req.Category.IsNull() && strings.TrimSpace(*req.Category.Value) != "" {
			category = strings.TrimSpace(*req.Category.Value)
		}
		cols["category"] = category
	}
	linkColumn(cols, req.LinkedItineraryID)

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if _, err := s.table.update(ctx, w, infoID, cols); err != nil {
		return nil, err
	}
	return s.current(ctx, w, infoID)
}

func (s *InfoService) Delete(ctx context.Context, tripID, infoID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	return s.table.remove(ctx, w, infoID)
}

func (s *InfoService) current(ctx context.Context, w *store.Workspace, id int64) (*dto.InfoView, error) {
	i, ok := s.table.find(w, id)
	if !ok {
		fresh, err := s.table.get(ctx, w.TripID(), id)
		if err != nil {
			return nil, err
		}
		i = *fresh
	}
	return &dto.InfoView{SharedInfo: i, LinkedEntryName: link.NamePtr(w.Itinerary.Days(), i.LinkedItineraryID)}, nil
}

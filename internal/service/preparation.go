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

type PreparationService struct {
	deps  Deps
	table childTable[model.Preparation]
}

// List 当前参与者看到的清单；participantID 为 0 时个人勾选全部视为未勾选
func (s *PreparationService) List(ctx context.Context, tripID, participantID int64) ([]dto.PreparationView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	items := s.table.items(w)

	checked, err := s.checkedBy(ctx, participantID, items)
	if err != nil {
		return nil, err
	}

	days := w.Itinerary.Days()
	out := make([]dto.PreparationView, 0, len(items))
	for _, p := range items {
		out = append(out, preparationView(days, p, checked))
	}
	return out, nil
}

func (s *PreparationService) checkedBy(ctx context.Context, participantID int64, items []model.Preparation) (map[int64]bool, error) {
	if participantID == 0 {
		return map[int64]bool{}, nil
	}
	var personal []int64
	for _, p := range items {
		if p.Type == model.PreparationPersonal {
			personal = append(personal, p.ID)
		}
	}
	if len(personal) == 0 {
		return map[int64]bool{}, nil
	}
	checked, err := s.deps.Checks.CheckedBy(ctx, participantID, personal)
	if err != nil {
		return nil, pkgerrors.Persistence("preparation_checks.list", err)
	}
	return checked, nil
}

func preparationView(days map[int][]model.ItineraryEntry, p model.Preparation, checked map[int64]bool) dto.PreparationView {
	mine := p.Checked
	if p.Type == model.PreparationPersonal {
		mine = checked[p.ID]
	}
	return dto.PreparationView{
		Preparation:     p,
		CheckedByMe:     mine,
		LinkedEntryName: link.NamePtr(days, p.LinkedItineraryID),
	}
}

func (s *PreparationService) Create(ctx context.Context, tripID, participantID int64, req dto.PreparationRequest) (*dto.PreparationView, error) {
	if !req.Content.Set || req.Content.IsNull() || strings.TrimSpace(*req.Content.Value) == "" {
		return nil, pkgerrors.ValidationFailed.WithMessage("content is required")
	}
	prepType := model.PreparationCommon
	if req.Type.Set && !req.Type.IsNull() {
		prepType = model.PreparationType(*req.Type.Value)
	}
	if !prepType.Valid() {
		return nil, pkgerrors.InvalidPreparationType
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	p := &model.Preparation{
		TripID:  tripID,
		Content: strings.TrimSpace(*req.Content.Value),
		Type:    prepType,
	}
	p.ID = id
	// 负责人只对 common 事项有意义
	if prepType == model.PreparationCommon && req.AssignedTo.Set {
		p.AssignedTo = req.AssignedTo.Value
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if req.LinkedItineraryID.Set {
		p.LinkedItineraryID = req.LinkedItineraryID.Value
	}

	if err := s.table.create(ctx, w, p); err != nil {
		return nil, err
	}
	return s.current(ctx, w, participantID, id)
}

func (s *PreparationService) Update(ctx context.Context, tripID, participantID, prepID int64, req dto.PreparationRequest) (*dto.PreparationView, error) {
	cols := make(map[string]interface{})
	if req.Content.Set {
		if req.Content.IsNull() || strings.TrimSpace(*req.Content.Value) == "" {
			return nil, pkgerrors.ValidationFailed.WithMessage("content is required")
		}
		cols["content"] = strings.TrimSpace(*req.Content.Value)
	}
	personal := false
	if req.Type.Set {
		if req.Type.IsNull() || !model.PreparationType(*req.Type.Value).Valid() {
			return nil, pkgerrors.InvalidPreparationType
		}
		cols["type"] = *req.Type.Value
		// 改为 personal 时清掉 common 才有的字段
		if personal = model.PreparationType(*req.Type.Value) == model.PreparationPersonal; personal {
			cols["assigned_to"] = nil
			cols["checked"] = false
		}
	}
	if req.AssignedTo.Set && !personal {
		cols["assigned_to"] = req.AssignedTo.Value
	}
	linkColumn(cols, req.LinkedItineraryID)

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if _, err := s.table.update(ctx, w, prepID, cols); err != nil {
		return nil, err
	}
	return s.current(ctx, w, participantID, prepID)
}

func (s *PreparationService) Delete(ctx context.Context, tripID, prepID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	return s.table.remove(ctx, w, prepID)
}

// Check common 事项更新公共勾选；personal 事项只记录当前参与者自己的勾选
func (s *PreparationService) Check(ctx context.Context, tripID, participantID, prepID int64, checked bool) (*dto.PreparationView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	prep, err := s.table.get(ctx, tripID, prepID)
	if err != nil {
		return nil, err
	}

	if prep.Type == model.PreparationCommon {
		if _, err := s.table.update(ctx, w, prepID, map[string]interface{}{"checked": checked}); err != nil {
			return nil, err
		}
		return s.current(ctx, w, participantID, prepID)
	}

	if participantID == 0 {
		return nil, pkgerrors.ParticipantRequired
	}
	if !w.Itinerary.Trip().HasParticipant(participantID) {
		return nil, pkgerrors.InvalidRequest.WithMessage("participant %d is not part of this trip", participantID)
	}

	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}
	check := &model.PreparationCheck{PreparationID: prepID, ParticipantID: participantID, Checked: checked}
	check.ID = id
	if err := s.deps.Checks.Upsert(ctx, check); err != nil {
		return nil, pkgerrors.Persistence("preparation_checks.upsert", err)
	}
	s.table.touched(ctx, w, prepID)
	return s.current(ctx, w, participantID, prepID)
}

func (s *PreparationService) current(ctx context.Context, w *store.Workspace, participantID, id int64) (*dto.PreparationView, error) {
	p, ok := s.table.find(w, id)
	if !ok {
		fresh, err := s.table.get(ctx, w.TripID(), id)
		if err != nil {
			return nil, err
		}
		p = *fresh
	}
	checked, err := s.checkedBy(ctx, participantID, []model.Preparation{p})
	if err != nil {
		return nil, err
	}
	v := preparationView(w.Itinerary.Days(), p, checked)
	return &v, nil
}

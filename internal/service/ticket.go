package service

import (
	"context"
	"strconv"
	"strings"

	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/store"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/validation"
)

type TicketService struct {
	deps  Deps
	table childTable[model.TicketType]
}

func (s *TicketService) List(ctx context.Context, tripID int64) ([]dto.TicketView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	items := s.table.items(w)
	out := make([]dto.TicketView, 0, len(items))
	for _, t := range items {
		out = append(out, ticketView(w, t))
	}
	return out, nil
}

func ticketView(w *store.Workspace, t model.TicketType) dto.TicketView {
	n := len(w.Itinerary.Trip().Participants)
	if t.Registrations == nil {
		t.Registrations = []model.Registration{}
	}
	return dto.TicketView{
		TicketType:      t,
		Badge:           t.Badge(n),
		Complete:        t.Complete(n),
		LinkedEntryName: link.NamePtr(w.Itinerary.Days(), t.LinkedItineraryID),
	}
}

func (s *TicketService) Create(ctx context.Context, tripID int64, req dto.TicketRequest) (*dto.TicketView, error) {
	if !req.Name.Set || req.Name.IsNull() || strings.TrimSpace(*req.Name.Value) == "" {
		return nil, pkgerrors.TitleRequired
	}
	mode := model.TicketModeIndividual
	if req.Mode.Set && !req.Mode.IsNull() {
		mode = model.TicketMode(*req.Mode.Value)
	}
	if !mode.Valid() {
		return nil, pkgerrors.InvalidTicketMode
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	t := &model.TicketType{
		TripID: tripID,
		Name:   strings.TrimSpace(*req.Name.Value),
		Mode:   mode,
	}
	t.ID = id
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if req.LinkedItineraryID.Set {
		t.LinkedItineraryID = req.LinkedItineraryID.Value
	}

	if err := s.table.create(ctx, w, t); err != nil {
		return nil, err
	}
	return s.current(ctx, w, id)
}

// Update 修改名称、模式或关联条目
func (s *TicketService) Update(ctx context.Context, tripID, ticketID int64, req dto.TicketRequest) (*dto.TicketView, error) {
	cols := make(map[string]interface{})
	if req.Name.Set {
		if req.Name.IsNull() || strings.TrimSpace(*req.Name.Value) == "" {
			return nil, pkgerrors.TitleRequired
		}
		cols["name"] = strings.TrimSpace(*req.Name.Value)
	}
	if req.Mode.Set {
		if req.Mode.IsNull() || !model.TicketMode(*req.Mode.Value).Valid() {
			return nil, pkgerrors.InvalidTicketMode
		}
		cols["mode"] = *req.Mode.Value
	}
	linkColumn(cols, req.LinkedItineraryID)

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if _, err := s.table.update(ctx, w, ticketID, cols); err != nil {
		return nil, err
	}
	return s.current(ctx, w, ticketID)
}

// Delete 删除票种及其全部登记
func (s *TicketService) Delete(ctx context.Context, tripID, ticketID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	// 先清登记；失败时票种仍在，可以重试
	if err := s.deps.Registrations.DeleteByTicket(ctx, ticketID); err != nil {
		return pkgerrors.Persistence("registrations.delete", err)
	}
	return s.table.remove(ctx, w, ticketID)
}

// Register 登记票据；individual 模式的 key 为参与者 ID，group 模式为 "all"。同一 key 再次登记会覆盖
func (s *TicketService) Register(ctx context.Context, tripID, ticketID int64, key string, uploadedBy int64, req dto.RegistrationRequest) (*dto.TicketView, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	regType := model.RegistrationType(req.Type)
	if !regType.Valid() {
		return nil, pkgerrors.InvalidRegistrationType
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.table.get(ctx, tripID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := validRegistrationKey(w.Itinerary.Trip(), ticket.Mode, key); err != nil {
		return nil, err
	}

	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}
	reg := &model.Registration{
		TicketTypeID: ticketID,
		Key:          key,
		Type:         regType,
		Code:         req.Code,
		ImageURL:     req.ImageURL,
		UploadedBy:   uploadedBy,
	}
	reg.ID = id

	if err := s.deps.Registrations.Upsert(ctx, reg); err != nil {
		return nil, pkgerrors.Persistence("registrations.upsert", err)
	}
	s.table.touched(ctx, w, ticketID)
	return s.current(ctx, w, ticketID)
}

func (s *TicketService) Unregister(ctx context.Context, tripID, ticketID int64, key string) (*dto.TicketView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.table.get(ctx, tripID, ticketID); err != nil {
		return nil, err
	}
	if err := s.deps.Registrations.Delete(ctx, ticketID, key); err != nil {
		return nil, recordError("registrations.delete", err)
	}
	s.table.touched(ctx, w, ticketID)
	return s.current(ctx, w, ticketID)
}

func validRegistrationKey(trip *model.Trip, mode model.TicketMode, key string) error {
	if mode == model.TicketModeGroup {
		if key != model.GroupRegistrationKey {
			return pkgerrors.InvalidRegistrationKey
		}
		return nil
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || !trip.HasParticipant(id) {
		return pkgerrors.InvalidRegistrationKey
	}
	return nil
}

// current 写入后的视图优先取刷新后的快照，快照缺失时回源
func (s *TicketService) current(ctx context.Context, w *store.Workspace, id int64) (*dto.TicketView, error) {
	if t, ok := s.table.find(w, id); ok {
		v := ticketView(w, t)
		return &v, nil
	}
	t, err := s.table.get(ctx, w.TripID(), id)
	if err != nil {
		return nil, err
	}
	v := ticketView(w, *t)
	return &v, nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/repository"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/validation"
	"TripMate/utils"
)

type TripService struct {
	deps Deps
}

// Create 创建行程及初始参与者
func (s *TripService) Create(ctx context.Context, req dto.CreateTripRequest) (*dto.TripDetail, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.TitleRequired
	}

	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, pkgerrors.InvalidDateRange
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, pkgerrors.InvalidDateRange
	}
	if end.Before(start) {
		return nil, pkgerrors.InvalidDateRange
	}

	tripID, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	trip := &model.Trip{
		Title:     title,
		StartDate: start,
		EndDate:   end,
		Image:     req.Image,
	}
	trip.ID = tripID

	for i, name := range req.Participants {
		id, err := nextID(s.deps)
		if err != nil {
			return nil, err
		}
		p := model.Participant{TripID: tripID, Name: strings.TrimSpace(name), Position: i}
		p.ID = id
		trip.Participants = append(trip.Participants, p)
	}

	if err := s.deps.Trips.Create(ctx, trip); err != nil {
		return nil, pkgerrors.Persistence("trips.create", err)
	}

	logger.Logger.Info("Trip created",
		zap.Int64("trip_id", tripID),
		zap.Int("days", trip.DayCount()),
		zap.Int("participants", len(trip.Participants)),
	)

	return tripDetail(trip), nil
}

// Get 行程、参与者和日期列表
func (s *TripService) Get(ctx context.Context, tripID int64) (*dto.TripDetail, error) {
	trip, err := s.deps.Trips.Get(ctx, tripID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, pkgerrors.TripNotFound
		}
		return nil, pkgerrors.Persistence("trips.get", err)
	}
	return tripDetail(trip), nil
}

// AddParticipant 追加参与者，位置排在最后
func (s *TripService) AddParticipant(ctx context.Context, tripID int64, req dto.AddParticipantRequest) (*model.Participant, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.ValidationFailed.WithMessage("name is required")
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}

	count, err := s.deps.Trips.CountParticipants(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Persistence("participants.count", err)
	}

	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}
	p := &model.Participant{TripID: tripID, Name: name, Position: int(count)}
	p.ID = id

	if err := s.deps.Trips.AddParticipant(ctx, p); err != nil {
		return nil, pkgerrors.Persistence("participants.create", err)
	}

	// 参与者数量影响票务徽标，订阅方需要重新读取行程
	w.Changed(ctx, model.TableTrips, model.OpInsert, id)
	refreshAfterWrite(ctx, tripID, model.TableTrips, w.Itinerary.LoadTrip)
	return p, nil
}

func tripDetail(trip *model.Trip) *dto.TripDetail {
	n := trip.DayCount()
	days := make([]dto.TripDay, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, dto.TripDay{Day: d, Date: formatDate(trip.DateOf(d))})
	}
	if trip.Participants == nil {
		trip.Participants = []model.Participant{}
	}
	return &dto.TripDetail{Trip: trip, Days: days}
}

package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TripMate/internal/model/dto"
	"TripMate/internal/service"
	"TripMate/pkg/response"
)

// CreateTrip 创建行程
// POST /v1/trips
func CreateTrip(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateTripRequest
	if !decode(ctx, c, &req) {
		return
	}
	trip, err := service.Trips().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, trip)
}

// GetTrip 行程、参与者和日期列表
// GET /v1/trips/:trip_id
func GetTrip(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	trip, err := service.Trips().Get(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, trip)
}

// AddParticipant 添加参与者
// POST /v1/trips/:trip_id/participants
func AddParticipant(ctx context.Context, c *app.RequestContext) {
	id, ok := tripID(ctx, c)
	if !ok {
		return
	}
	var req dto.AddParticipantRequest
	if !decode(ctx, c, &req) {
		return
	}
	p, err := service.Trips().AddParticipant(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, p)
}

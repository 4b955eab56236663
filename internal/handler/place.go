package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TripMate/internal/service"
	"TripMate/pkg/response"
)

// SearchPlaces 地点搜索
// GET /v1/places/search?q=
func SearchPlaces(ctx context.Context, c *app.RequestContext) {
	places, err := service.Places().Search(ctx, c.Query("q"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, places)
}

package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"

	"TripMate/internal/middleware"
	"TripMate/pkg/errors"
	"TripMate/pkg/response"
	"TripMate/pkg/snowflake"
)

// pathID 解析路径中的 ID，失败时直接写 INVALID_PATH
func pathID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	id, err := snowflake.ParseID(c.Param(name))
	if err != nil {
		response.Error(ctx, c, errors.InvalidPath.WithMessage("invalid %s", name))
		return 0, false
	}
	return id, true
}

func tripID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	return pathID(ctx, c, "trip_id")
}

// tripAndRecord 同时解析 trip_id 和子资源 ID
func tripAndRecord(ctx context.Context, c *app.RequestContext, name string) (int64, int64, bool) {
	trip, ok := tripID(ctx, c)
	if !ok {
		return 0, 0, false
	}
	id, ok := pathID(ctx, c, name)
	if !ok {
		return 0, 0, false
	}
	return trip, id, true
}

// decode 读取 JSON 请求体。部分更新依赖字段是否出现，因此不走 c.Bind
func decode(ctx context.Context, c *app.RequestContext, dest interface{}) bool {
	body := c.Request.Body()
	if len(body) == 0 {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("request body is required"))
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		response.BindError(ctx, c, err)
		return false
	}
	return true
}

// participant 当前请求声明的参与者，未声明时为 0
func participant(c *app.RequestContext) int64 {
	id, _ := middleware.GetParticipantID(c)
	return id
}

package middleware

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"TripMate/pkg/errors"
	"TripMate/pkg/response"
)

const (
	// ParticipantHeader 前端在请求头中声明当前参与者
	ParticipantHeader = "X-Participant-ID"
	ParticipantKey    = "participant_id"
)

// ParticipantMiddleware 解析 X-Participant-ID；没有登录体系，缺省时按匿名处理
func ParticipantMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		raw := string(c.GetHeader(ParticipantHeader))
		if raw == "" {
			c.Next(ctx)
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(ctx, c, errors.InvalidRequest.WithMessage("invalid %s header", ParticipantHeader))
			c.Abort()
			return
		}

		c.Set(ParticipantKey, id)
		c.Next(ctx)
	}
}

// GetParticipantID 当前请求声明的参与者，未声明时返回 0, false
func GetParticipantID(c *app.RequestContext) (int64, bool) {
	v, ok := c.Get(ParticipantKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

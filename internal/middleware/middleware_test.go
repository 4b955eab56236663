package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripMate/pkg/response"
	"TripMate/storage/redis"
)

func newEngine(handlers ...app.HandlerFunc) *route.Engine {
	engine := route.NewEngine(config.NewOptions([]config.Option{}))
	engine.Use(handlers...)
	engine.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		id, ok := GetParticipantID(c)
		c.JSON(http.StatusOK, map[string]interface{}{"participant_id": id, "known": ok})
	})
	engine.POST("/boom", func(ctx context.Context, c *app.RequestContext) {
		panic("kaboom")
	})
	return engine
}

func TestParticipantMiddleware(t *testing.T) {
	engine := newEngine(ParticipantMiddleware())

	w := ut.PerformRequest(engine, http.MethodGet, "/ping", nil, ut.Header{Key: ParticipantHeader, Value: "11"})
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, float64(11), body["participant_id"])
	assert.Equal(t, true, body["known"])

	w = ut.PerformRequest(engine, http.MethodGet, "/ping", nil)
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	assert.Equal(t, false, body["known"])

	w = ut.PerformRequest(engine, http.MethodGet, "/ping", nil, ut.Header{Key: ParticipantHeader, Value: "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}

func TestCORSPreflight(t *testing.T) {
	engine := newEngine(CORSMiddleware())
	engine.OPTIONS("/ping", func(ctx context.Context, c *app.RequestContext) {})

	w := ut.PerformRequest(engine, http.MethodOptions, "/ping", nil, ut.Header{Key: "Origin", Value: "https://tripmate.app"})
	resp := w.Result()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "https://tripmate.app", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Contains(t, string(resp.Header.Peek("Access-Control-Allow-Headers")), ParticipantHeader)
}

func TestRecoverMiddleware(t *testing.T) {
	engine := newEngine(RecoverMiddlewareWithConfig(RecoverConfig{IsProduction: true}))

	w := ut.PerformRequest(engine, http.MethodPost, "/boom", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Nil(t, body.Error.Details, "production hides panic details")
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	redis.SetClient(db)
	mock.MatchExpectationsInOrder(false)

	engine := newEngine(ParticipantMiddleware(), RateLimitMiddleware(RateLimitConfig{
		Window:        60,
		MaxRequests:   1,
		KeyPrefix:     "rate:test",
		ByParticipant: true,
	}))

	// 没有预置期望，redis 调用全部失败，请求照常放行
	w := ut.PerformRequest(engine, http.MethodGet, "/ping", nil, ut.Header{Key: ParticipantHeader, Value: "11"})
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
}

func TestRateLimiterIdentity(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{KeyPrefix: "rate:test", ByParticipant: true})

	c := app.NewContext(0)
	c.Set(ParticipantKey, int64(42))
	assert.Equal(t, "participant:42", rl.identity(c))

	rl = NewRateLimiter(RateLimitConfig{KeyPrefix: "rate:test"})
	assert.Contains(t, rl.identity(c), "ip:")
}

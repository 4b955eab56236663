package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TripMate/internal/cache"
	"TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/response"
	"TripMate/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否优先按参与者限流
	ByParticipant bool
	// 阻塞时长（秒），0 表示不额外阻塞
	BlockDuration int
}

// WriteRateLimitConfig 写接口的默认限流，Init 时按配置覆盖
var WriteRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   120,
	KeyPrefix:     "rate:write",
	ByParticipant: true,
	BlockDuration: 0,
}

// SearchRateLimitConfig 地点搜索会打到外部服务，单独收紧
var SearchRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   30,
	KeyPrefix:     "rate:search",
	ByParticipant: true,
	BlockDuration: 60,
}

// RateLimiter 基于 zset 的滑动窗口限流
type RateLimiter struct {
	config RateLimitConfig
	now    func() time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{config: config, now: time.Now}
}

// identity 有参与者头时按参与者，否则按客户端 IP
func (rl *RateLimiter) identity(c *app.RequestContext) string {
	if rl.config.ByParticipant {
		if id, ok := GetParticipantID(c); ok {
			return "participant:" + strconv.FormatInt(id, 10)
		}
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) key(c *app.RequestContext) string {
	return redis.Key(rl.config.KeyPrefix, rl.identity(c))
}

func (rl *RateLimiter) blockKey(c *app.RequestContext) string {
	return redis.Key(rl.config.KeyPrefix, "block", rl.identity(c))
}

// Allow 记录本次请求并返回窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.key(c)
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := redis.Client().TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	count := int(card.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return redis.Client().Set(ctx, rl.blockKey(c), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	n, err := redis.Client().Exists(ctx, rl.blockKey(c)).Result()
	return n > 0, err
}

// RateLimitMiddleware redis 不可用时放行并记录日志，熔断后不再访问 redis
func RateLimitMiddleware(config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(ctx context.Context, c *app.RequestContext) {
		var (
			blocked bool
			allowed = true
			count   int
		)
		err := cache.RedisBreaker.Call(ctx, func() error {
			var err error
			if blocked, err = limiter.IsBlocked(ctx, c); err != nil || blocked {
				return err
			}
			allowed, count, err = limiter.Allow(ctx, c)
			return err
		})
		if err != nil {
			logger.Logger.Warn("Rate limit check skipped",
				zap.String("path", string(c.Path())),
				zap.Error(err),
			)
			c.Next(ctx)
			return
		}

		if blocked {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		remaining := config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(limiter.now().Add(time.Duration(config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block client", zap.String("identity", limiter.identity(c)), zap.Error(err))
			}
			logger.Logger.Info("Request rate limited",
				zap.String("identity", limiter.identity(c)),
				zap.Int("count", count),
			)
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

// WriteRateLimitMiddleware 所有写接口共用
func WriteRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(WriteRateLimitConfig)
}

func SearchRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(SearchRateLimitConfig)
}

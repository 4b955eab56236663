package middleware

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 是否记录调用栈
	EnableStackTrace bool
	// 生产环境不返回 panic 详情
	IsProduction bool
	// 是否记录请求体（只记录小于 1KB 的 JSON）
	LogRequestBody bool
	// 严重错误回调，可用于告警
	OnSevereError func(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte)
}

// DefaultRecoverConfig 默认配置，IsProduction 由 Init 按环境设置
var DefaultRecoverConfig = RecoverConfig{
	EnableStackTrace: true,
	LogRequestBody:   true,
}

var internalError = errors.Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(DefaultRecoverConfig)
}

func RecoverMiddlewareWithConfig(config RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, config)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, config RecoverConfig) {
	var stack []byte
	if config.EnableStackTrace {
		stack = callerStack(4)
	}

	logPanic(ctx, c, err, stack, config)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(fmt.Errorf("panic: %v", err))
		span.SetStatus(codes.Error, "panic recovered")
	}

	if config.OnSevereError != nil && isSeverePanic(err) {
		config.OnSevereError(ctx, c, err, stack)
	}

	if config.IsProduction {
		response.Error(ctx, c, internalError)
	} else {
		details := map[string]interface{}{
			"panic":     fmt.Sprintf("%v", err),
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if len(stack) > 0 {
			details["stack"] = string(stack)
		}
		response.ErrorWithDetails(ctx, c, internalError, details)
	}
	c.Abort()
}

// callerStack 当前 goroutine 的调用栈，跳过 runtime 帧
func callerStack(skip int) []byte {
	var b strings.Builder
	for i := skip; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "/runtime/") {
			continue
		}
		name := "?"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
		fmt.Fprintf(&b, "%s:%d %s\n", file, line, name)
	}
	return []byte(b.String())
}

func logPanic(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, config RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", string(c.GetHeader("X-Request-ID"))),
	}

	if id, ok := GetParticipantID(c); ok {
		fields = append(fields, zap.Int64("participant_id", id))
	}

	if config.LogRequestBody {
		body := c.Request.Body()
		if len(body) > 0 && len(body) < 1024 && strings.Contains(string(c.ContentType()), "json") {
			fields = append(fields, zap.ByteString("body", body))
		}
	}

	if len(stack) > 0 {
		fields = append(fields, zap.ByteString("stack", stack))
	}

	logger.Logger.Error("[PANIC RECOVERED]", fields...)
}

// isSeverePanic 运行时致命类错误
func isSeverePanic(err interface{}) bool {
	if err == nil {
		return false
	}

	msg := fmt.Sprintf("%v", err)
	for _, pattern := range []string{
		"out of memory",
		"concurrent map writes",
		"concurrent map read and map write",
		"index out of range",
		"slice bounds out of range",
		"nil pointer dereference",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

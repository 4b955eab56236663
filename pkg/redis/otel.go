package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	redisCommandsTotal   metric.Int64Counter
	redisCommandDuration metric.Float64Histogram
	redisCacheHits       metric.Int64Counter
	redisCacheMisses     metric.Int64Counter
)

// InitRedisMetrics 初始化 Redis 指标
func InitRedisMetrics(meter metric.Meter) error {
	var err error

	redisCommandsTotal, err = meter.Int64Counter(
		"redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	redisCommandDuration, err = meter.Float64Histogram(
		"redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		return err
	}

	redisCacheHits, err = meter.Int64Counter(
		"redis.cache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	redisCacheMisses, err = meter.Int64Counter(
		"redis.cache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// keySegments 键名只保留前几段，地点搜索词等不进入 span
const keySegments = 2

// TracingHook go-redis 追踪 Hook
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

func NewTracingHook(tracer trace.Tracer, db int) *TracingHook {
	if tracer == nil {
		tracer = otel.Tracer("tripmate.redis")
	}
	return &TracingHook{
		tracer: tracer,
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
		},
	}
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		name := strings.ToUpper(cmd.Name())
		ctx, span := h.tracer.Start(ctx, "redis."+strings.ToLower(name),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
		)
		defer span.End()

		span.SetAttributes(semconv.DBOperation(name))
		if key := keyOf(cmd.Args()); key != "" {
			span.SetAttributes(attribute.String("redis.key", key))
		}

		start := time.Now()
		err := next(ctx, cmd)
		status := finish(span, err)

		if redisCommandsTotal != nil {
			attrs := metric.WithAttributes(
				attribute.String("redis.command", name),
				attribute.String("redis.status", status),
			)
			redisCommandsTotal.Add(ctx, 1, attrs)
			redisCommandDuration.Record(ctx, time.Since(start).Seconds(), attrs)

			if name == "GET" {
				if status == "miss" {
					redisCacheMisses.Add(ctx, 1)
				} else if status == "success" {
					redisCacheHits.Add(ctx, 1)
				}
			}
		}
		return err
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := h.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, strings.ToUpper(cmd.Name()))
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.StringSlice("redis.pipeline.commands", names),
		)

		err := next(ctx, cmds)
		status := finish(span, err)

		if redisCommandsTotal != nil {
			redisCommandsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("redis.command", "PIPELINE"),
				attribute.String("redis.status", status),
			))
		}
		return err
	}
}

// finish 设置 span 状态，redis.Nil 记为 miss
func finish(span trace.Span, err error) string {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
		return "success"
	case errors.Is(err, redis.Nil):
		span.SetStatus(codes.Ok, "miss")
		return "miss"
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "error"
	}
}

// keyOf 取第一个参数作为键，只保留前缀段
func keyOf(args []interface{}) string {
	if len(args) < 2 {
		return ""
	}
	key, ok := args[1].(string)
	if !ok {
		return ""
	}
	parts := strings.SplitN(key, ":", keySegments+1)
	if len(parts) > keySegments {
		return strings.Join(parts[:keySegments], ":") + ":*"
	}
	return key
}

// Instrument 为客户端挂上追踪 Hook
func Instrument(client redis.UniversalClient, db int) {
	client.AddHook(NewTracingHook(nil, db))
}

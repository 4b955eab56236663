package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestKeyOfMasksTail(t *testing.T) {
	assert.Equal(t, "tm:place:*", keyOf([]interface{}{"get", "tm:place:shibuya crossing"}))
	assert.Equal(t, "tm:lock", keyOf([]interface{}{"get", "tm:lock"}))
	assert.Equal(t, "", keyOf([]interface{}{"ping"}))
	assert.Equal(t, "", keyOf([]interface{}{"get", 42}))
}

func newRecordingHook() (*TracingHook, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracingHook(tp.Tracer("test"), 0), rec
}

func TestProcessHookStatus(t *testing.T) {
	hook, rec := newRecordingHook()
	ctx := context.Background()

	miss := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error { return redis.Nil })
	require.ErrorIs(t, miss(ctx, redis.NewStringCmd(ctx, "get", "tm:place:tokyo")), redis.Nil)

	fail := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error { return assert.AnError })
	require.Error(t, fail(ctx, redis.NewStatusCmd(ctx, "set", "tm:lock:link_audit", "1")))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "redis.get", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("redis.key", "tm:place:*"))
	assert.Equal(t, "redis.set", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestPipelineHookNamesCommands(t *testing.T) {
	hook, rec := newRecordingHook()
	ctx := context.Background()

	run := hook.ProcessPipelineHook(func(ctx context.Context, cmds []redis.Cmder) error { return nil })
	require.NoError(t, run(ctx, []redis.Cmder{
		redis.NewIntCmd(ctx, "zadd", "tm:rate:write:ip:1.2.3.4", 1, "m"),
		redis.NewIntCmd(ctx, "zcard", "tm:rate:write:ip:1.2.3.4"),
	}))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.StringSlice("redis.pipeline.commands", []string{"ZADD", "ZCARD"}))
}

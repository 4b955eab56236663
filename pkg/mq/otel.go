package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	mqMessagesTotal   metric.Int64Counter
	mqMessageDuration metric.Float64Histogram
)

// InitMQMetrics 初始化 RabbitMQ 指标
func InitMQMetrics(meter metric.Meter) error {
	var err error

	mqMessagesTotal, err = meter.Int64Counter(
		"mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mqMessageDuration, err = meter.Float64Histogram(
		"mq.message.duration",
		metric.WithDescription("RabbitMQ publish and handling duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	return err
}

func tracer() trace.Tracer {
	return otel.Tracer("tripmate.rabbitmq")
}

// HeaderCarrier 让 trace 上下文随消息头传播
type HeaderCarrier amqp.Table

func (h HeaderCarrier) Get(key string) string {
	if v, ok := h[key].(string); ok {
		return v
	}
	return ""
}

func (h HeaderCarrier) Set(key, value string) {
	h[key] = value
}

func (h HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// EndFunc 结束 span 并记录结果
type EndFunc func(err error)

// StartPublish 开启发布 span，并把上下文注入 msg.Headers
func StartPublish(ctx context.Context, exchange, routingKey string, msg *amqp.Publishing) (context.Context, EndFunc) {
	ctx, span := tracer().Start(ctx, "rabbitmq.publish "+exchange,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			semconv.MessagingDestinationName(exchange),
			semconv.MessagingRabbitmqDestinationRoutingKey(routingKey),
		),
	)

	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(msg.Headers))

	return ctx, endSpan(ctx, span, "publish", exchange, time.Now())
}

// StartProcess 从消息头恢复上游上下文并开启处理 span
func StartProcess(ctx context.Context, queue string, d amqp.Delivery) (context.Context, EndFunc) {
	if d.Headers != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(d.Headers))
	}
	ctx, span := tracer().Start(ctx, "rabbitmq.process "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.source.name", queue),
			semconv.MessagingMessageID(d.MessageId),
			attribute.Bool("messaging.rabbitmq.redelivered", d.Redelivered),
		),
	)
	return ctx, endSpan(ctx, span, "process", queue, time.Now())
}

func endSpan(ctx context.Context, span trace.Span, op, destination string, start time.Time) EndFunc {
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if mqMessagesTotal == nil {
			return
		}
		attrs := metric.WithAttributes(
			attribute.String("messaging.operation", op),
			attribute.String("messaging.destination", destination),
			attribute.String("messaging.status", status),
		)
		mqMessagesTotal.Add(ctx, 1, attrs)
		mqMessageDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

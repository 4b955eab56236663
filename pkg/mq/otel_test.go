package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestPublishContextReachesConsumer(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	msg := amqp.Publishing{Body: []byte(`{"table":"tickets"}`)}
	_, endPublish := StartPublish(context.Background(), "trip.changes", "", &msg)
	endPublish(nil)
	require.Contains(t, msg.Headers, "traceparent")

	_, endProcess := StartProcess(context.Background(), "trip.changes.node-a", amqp.Delivery{Headers: msg.Headers, MessageId: "m1"})
	endProcess(assert.AnError)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext().TraceID(), spans[1].SpanContext().TraceID())
	assert.Equal(t, spans[0].SpanContext().SpanID(), spans[1].Parent().SpanID())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestHeaderCarrier(t *testing.T) {
	h := HeaderCarrier(amqp.Table{"n": 1})
	h.Set("k", "v")
	assert.Equal(t, "v", h.Get("k"))
	assert.Equal(t, "", h.Get("n"))
	assert.ElementsMatch(t, []string{"k", "n"}, h.Keys())
}

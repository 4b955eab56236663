package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := InitOpenTelemetry(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTrimEndpoint(t *testing.T) {
	assert.Equal(t, "collector:4317", trimEndpoint("http://collector:4317"))
	assert.Equal(t, "collector:4317", trimEndpoint("https://collector:4317/"))
	assert.Equal(t, "localhost:4317", trimEndpoint(" localhost:4317 "))
}

func TestNormalize(t *testing.T) {
	cfg := Config{Environment: "production", SampleRatio: 3, OTLPEndpoint: "http://c:4317"}.normalize()
	assert.Equal(t, 0.1, cfg.SampleRatio)
	assert.Equal(t, "c:4317", cfg.OTLPEndpoint)

	dev := Config{SampleRatio: 0.2}.normalize()
	assert.Equal(t, "development", dev.Environment)
	assert.Equal(t, 1.0, dev.SampleRatio)
}

func TestServiceAttributesCarryNamespace(t *testing.T) {
	attrs := ServiceAttributes("tripmate-server", "1.0.0", "production")
	assert.Contains(t, attrs, semconv.ServiceNamespace(Namespace))
	assert.Contains(t, attrs, semconv.ServiceName("tripmate-server"))
}

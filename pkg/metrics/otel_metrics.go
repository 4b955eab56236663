package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 快照刷新
	RefreshTotal    metric.Int64Counter
	RefreshDuration metric.Float64Histogram

	// 关联投影
	ProjectionDuration metric.Float64Histogram
	DanglingLinks      metric.Int64Counter

	// 地点搜索
	GeocodeCallsTotal metric.Int64Counter

	// 变更推送
	ChangesPublished metric.Int64Counter
	OpenWorkspaces   metric.Int64UpDownCounter
}

var (
	metrics *OTelMetrics
	meter   = otel.Meter("tripmate")
)

// InitMetrics 初始化 OpenTelemetry 指标，未设置 provider 时使用全局 noop
func InitMetrics() error {
	var err error

	m := &OTelMetrics{}

	m.RefreshTotal, err = meter.Int64Counter(
		"store_refresh_total",
		metric.WithDescription("Total number of snapshot refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return err
	}

	m.RefreshDuration, err = meter.Float64Histogram(
		"store_refresh_duration_seconds",
		metric.WithDescription("Time spent fetching a snapshot in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.ProjectionDuration, err = meter.Float64Histogram(
		"link_projection_duration_seconds",
		metric.WithDescription("Time spent enriching itinerary entries with links"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.DanglingLinks, err = meter.Int64Counter(
		"link_dangling_total",
		metric.WithDescription("Total number of dangling links found by the audit"),
		metric.WithUnit("{link}"),
	)
	if err != nil {
		return err
	}

	m.GeocodeCallsTotal, err = meter.Int64Counter(
		"geocode_calls_total",
		metric.WithDescription("Total number of place search calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	m.ChangesPublished, err = meter.Int64Counter(
		"changes_published_total",
		metric.WithDescription("Total number of change messages published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	m.OpenWorkspaces, err = meter.Int64UpDownCounter(
		"workspaces_open",
		metric.WithDescription("Number of trip workspaces held in memory"),
		metric.WithUnit("{workspace}"),
	)
	if err != nil {
		return err
	}

	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例，未初始化时为 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func (m *OTelMetrics) recordRefresh(ctx context.Context, table string, seconds float64, err error) {
	m.RefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("status", status(err)),
	))
	m.RefreshDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("table", table)))
}

func (m *OTelMetrics) recordGeocode(ctx context.Context, provider, source string, err error) {
	m.GeocodeCallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("source", source),
		attribute.String("status", status(err)),
	))
}

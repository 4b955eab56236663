package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordRefresh 记录一次快照拉取
func RecordRefresh(ctx context.Context, table string, seconds float64, err error) {
	if m := GetMetrics(); m != nil {
		m.recordRefresh(ctx, table, seconds, err)
	}
}

// RecordProjection 记录一次关联投影耗时
func RecordProjection(ctx context.Context, entries int, seconds float64) {
	if m := GetMetrics(); m != nil {
		m.ProjectionDuration.Record(ctx, seconds, metric.WithAttributes(
			attribute.Int("entries", entries),
		))
	}
}

// RecordDangling 记录巡检发现的悬空关联
func RecordDangling(ctx context.Context, table string, count int) {
	if m := GetMetrics(); m != nil && count > 0 {
		m.DanglingLinks.Add(ctx, int64(count), metric.WithAttributes(attribute.String("table", table)))
	}
}

// RecordGeocode source 为 cache 或 provider
func RecordGeocode(ctx context.Context, provider, source string, err error) {
	if m := GetMetrics(); m != nil {
		m.recordGeocode(ctx, provider, source, err)
	}
}

// RecordChangePublished 记录发布的变更
func RecordChangePublished(ctx context.Context, table string, err error) {
	if m := GetMetrics(); m != nil {
		m.ChangesPublished.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("status", status(err)),
		))
	}
}

// AddOpenWorkspaces delta 为 +1 或 -1
func AddOpenWorkspaces(ctx context.Context, delta int64) {
	if m := GetMetrics(); m != nil {
		m.OpenWorkspaces.Add(ctx, delta)
	}
}

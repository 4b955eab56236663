package database

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
)

// InitDatabaseMetrics 初始化数据库指标
func InitDatabaseMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	return err
}

const (
	spanKey  = "otel:span"
	startKey = "otel:start_time"
)

// 行程备注、费用名称可能带个人信息，只保留结构
var literalPattern = regexp.MustCompile(`'[^']*'`)

// PluginConfig 插件配置
type PluginConfig struct {
	DBName       string
	MaxSQLLength int
	Tracer       trace.Tracer
}

// OTELPlugin 为每次 GORM 操作创建 client span 并记录耗时
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

func NewOTELPlugin(cfg PluginConfig) *OTELPlugin {
	if cfg.DBName == "" {
		cfg.DBName = "tripmate"
	}
	if cfg.MaxSQLLength <= 0 {
		cfg.MaxSQLLength = 500
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("tripmate.gorm")
	}
	return &OTELPlugin{tracer: tracer, config: cfg}
}

func (p *OTELPlugin) Name() string {
	return "tripmate:otel"
}

// Initialize 实现 gorm.Plugin
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
		name   string
	}{
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "row"},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}

	for _, h := range hooks {
		if err := h.before("otel:before_"+h.name, p.before(h.op)); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.name, p.after(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func (p *OTELPlugin) before(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, span := p.tracer.Start(ctx, "db."+op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemPostgreSQL,
				semconv.DBName(p.config.DBName),
				semconv.DBOperation(op),
			),
		)
		db.InstanceSet(startKey, time.Now())
		db.InstanceSet(spanKey, span)
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(spanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		// SQL 在 gorm 回调内才拼好，这里补上语句与表名
		if table := db.Statement.Table; table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(semconv.DBStatement(p.sanitize(sql)))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		status := "success"
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到是正常分支
			status = "not_found"
			span.SetStatus(codes.Ok, "record not found")
		default:
			status = "error"
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}

		if dbQueriesTotal == nil {
			return
		}
		attrs := metric.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.table", db.Statement.Table),
			attribute.String("db.status", status),
		)
		dbQueriesTotal.Add(db.Statement.Context, 1, attrs)
		if t, ok := db.InstanceGet(startKey); ok {
			if start, ok := t.(time.Time); ok {
				dbQueryDuration.Record(db.Statement.Context, time.Since(start).Seconds(), attrs)
			}
		}
	}
}

// sanitize 抹掉字面量并截断
func (p *OTELPlugin) sanitize(sql string) string {
	sql = literalPattern.ReplaceAllString(sql, "'?'")
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	return sql
}

// WithOTELPlugin 为 GORM 注册追踪插件
func WithOTELPlugin(db *gorm.DB, cfg PluginConfig) error {
	return db.Use(NewOTELPlugin(cfg))
}

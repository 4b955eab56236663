package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"TripMate/config"
)

var (
	// Logger 在 Init 之前为 no-op，单测和工具代码可直接使用
	Logger   = zap.NewNop()
	logClose io.Closer
)

// options 构建 logger 所需的全部配置
type options struct {
	level     string
	format    string
	output    string
	service   string
	instance  string
	component string
	text      bool
}

func fromConfig(cfg *config.Config, component string) options {
	return options{
		level:     cfg.LoggerLevel,
		format:    cfg.LoggerFormat,
		output:    cfg.LoggerOutputPath,
		service:   cfg.ServiceName,
		instance:  cfg.InstanceID,
		component: component,
		text:      cfg.IsDevelopment() || strings.EqualFold(cfg.LoggerFormat, "text"),
	}
}

// Init 按配置构建 zap logger 并接管 hertz 的 hlog 输出。
// component 区分 server、worker、scheduler 三个进程
func Init(component string) {
	o := fromConfig(&config.Cfg, component)

	hzLogger, closer, fileErr := build(o)
	if fileErr != nil {
		// 日志文件打不开时退回 stdout，不阻止进程启动
		fallback := o
		fallback.output = "stdout"
		hzLogger, closer, _ = build(fallback)
	}

	hlog.SetLogger(hzLogger)
	hlog.SetLevel(toHlogLevel(parseLevel(o.level)))

	logClose = closer
	Logger = hzLogger.Logger().With(baseFields(o)...)
	Logger.Info("Logger initialized",
		zap.String("level", strings.ToUpper(o.level)),
		zap.String("format", o.format),
		zap.String("environment", config.Cfg.Environment),
	)
	if fileErr != nil {
		Logger.Warn("Log file unavailable, writing to stdout",
			zap.String("path", o.output),
			zap.Error(fileErr),
		)
	}
}

func baseFields(o options) []zap.Field {
	fields := []zap.Field{zap.String("service", o.service)}
	if o.component != "" {
		fields = append(fields, zap.String("component", o.component))
	}
	if o.instance != "" {
		fields = append(fields, zap.String("instance", o.instance))
	}
	return fields
}

func build(o options) (*hertzzap.Logger, io.Closer, error) {
	ws, closer, err := writeSyncer(o.output)
	if err != nil {
		return nil, nil, err
	}

	level := zap.NewAtomicLevelAt(parseLevel(o.level))
	hzLogger := hertzzap.NewLogger(
		hertzzap.WithCoreEnc(encoder(o.text)),
		hertzzap.WithCoreWs(ws),
		hertzzap.WithCoreLevel(level),
		hertzzap.WithZapOptions(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
	)
	return hzLogger, closer, nil
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
	if logClose != nil {
		_ = logClose.Close()
	}
}

func encoder(text bool) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if text {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func writeSyncer(path string) (zapcore.WriteSyncer, io.Closer, error) {
	switch strings.ToLower(path) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil, nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(file), file, nil
}

// parseLevel 未知级别按 INFO 处理
func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

var hlogLevels = map[zapcore.Level]hlog.Level{
	zapcore.DebugLevel: hlog.LevelDebug,
	zapcore.InfoLevel:  hlog.LevelInfo,
	zapcore.WarnLevel:  hlog.LevelWarn,
	zapcore.ErrorLevel: hlog.LevelError,
	zapcore.FatalLevel: hlog.LevelFatal,
}

func toHlogLevel(level zapcore.Level) hlog.Level {
	if l, ok := hlogLevels[level]; ok {
		return l
	}
	return hlog.LevelInfo
}

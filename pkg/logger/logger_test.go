package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))

	assert.Equal(t, hlog.LevelError, toHlogLevel(zapcore.ErrorLevel))
	assert.Equal(t, hlog.LevelInfo, toHlogLevel(zapcore.DPanicLevel))
}

func TestBuildWritesJSONWithBaseFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripmate.log")
	o := options{
		level:     "info",
		format:    "json",
		output:    path,
		service:   "tripmate",
		instance:  "api-1",
		component: "worker",
	}

	hzLogger, closer, err := build(o)
	require.NoError(t, err)
	require.NotNil(t, closer)

	l := hzLogger.Logger().With(baseFields(o)...)
	l.Debug("Dropped below level")
	l.Info("Workspace opened", zap.Int64("trip_id", 7))
	require.NoError(t, l.Sync())
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "INFO", gjson.Get(line, "level").String())
	assert.Equal(t, "Workspace opened", gjson.Get(line, "msg").String())
	assert.Equal(t, "tripmate", gjson.Get(line, "service").String())
	assert.Equal(t, "worker", gjson.Get(line, "component").String())
	assert.Equal(t, "api-1", gjson.Get(line, "instance").String())
	assert.Equal(t, int64(7), gjson.Get(line, "trip_id").Int())
}

func TestBaseFieldsSkipsEmpty(t *testing.T) {
	fields := baseFields(options{service: "tripmate"})
	require.Len(t, fields, 1)
	assert.Equal(t, "service", fields[0].Key)
}

func TestWriteSyncerRejectsMissingDirectory(t *testing.T) {
	_, _, err := writeSyncer(filepath.Join(t.TempDir(), "missing", "app.log"))
	assert.Error(t, err)

	ws, closer, err := writeSyncer("STDOUT")
	require.NoError(t, err)
	assert.NotNil(t, ws)
	assert.Nil(t, closer)
}

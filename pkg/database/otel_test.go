package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type trip struct {
	ID    int64
	Title string
}

func openWithPlugin(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *tracetest.SpanRecorder) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	require.NoError(t, WithOTELPlugin(db, PluginConfig{Tracer: tp.Tracer("test")}))
	return db, mock, rec
}

func TestPluginRecordsSelectSpan(t *testing.T) {
	db, mock, rec := openWithPlugin(t)

	mock.ExpectQuery(`SELECT \* FROM "trips"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(1), "Tokyo"))

	var got []trip
	require.NoError(t, db.WithContext(context.Background()).Where("title = 'Tokyo'").Find(&got).Error)
	require.Len(t, got, 1)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.select", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	var statement string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "db.statement" {
			statement = kv.Value.AsString()
		}
	}
	assert.Contains(t, statement, "'?'")
	assert.NotContains(t, statement, "Tokyo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPluginMarksErrors(t *testing.T) {
	db, mock, rec := openWithPlugin(t)

	mock.ExpectExec(`DELETE FROM "trips"`).WillReturnError(assert.AnError)

	err := db.Delete(&trip{}, 9).Error
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.delete", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestSanitizeTruncates(t *testing.T) {
	p := NewOTELPlugin(PluginConfig{MaxSQLLength: 10})
	assert.Equal(t, "SELECT '?'...", p.sanitize("SELECT 'secret' FROM trips"))
}

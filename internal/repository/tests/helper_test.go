package repository_test

import (
	"path/filepath"
	"testing"

	"github.com/fazamuttaqien/credit-engine/internal/model"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	noop_metric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	noop_trace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type telemetryDeps struct {
	meter  metric.Meter
	tracer trace.Tracer
	log    *zap.Logger
}

func newTelemetryDeps(name string) telemetryDeps {
	return telemetryDeps{
		meter:  noop_metric.NewMeterProvider().Meter("test-" + name + "-meter"),
		tracer: noop_trace.NewTracerProvider().Tracer("test-" + name + "-tracer"),
		log:    zap.NewNop(),
	}
}

// openTestDB returns a migrated sqlite database in a per-test directory.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))

	return db
}

func resetTables(db *gorm.DB) {
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM loans")
	db.Exec("DELETE FROM customers")
}

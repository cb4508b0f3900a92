package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DBMetrics holds the instruments shared by the gorm repositories.
type DBMetrics struct {
	queryDuration metric.Float64Histogram
	queryCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	activeQueries metric.Int64UpDownCounter
	rowsWritten   metric.Int64Counter
	rowsRetrieved metric.Int64Counter
}

func NewDBMetrics(meter metric.Meter) *DBMetrics {
	queryDuration, _ := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Duration of database queries"),
		metric.WithUnit("ms"),
	)

	queryCount, _ := meter.Int64Counter(
		"db.query.count",
		metric.WithDescription("Number of database queries"),
		metric.WithUnit("{query}"),
	)

	errorCount, _ := meter.Int64Counter(
		"db.error.count",
		metric.WithDescription("Number of database errors"),
		metric.WithUnit("{error}"),
	)

	activeQueries, _ := meter.Int64UpDownCounter(
		"db.queries.active",
		metric.WithDescription("Number of in-flight database queries"),
		metric.WithUnit("{query}"),
	)

	rowsWritten, _ := meter.Int64Counter(
		"db.rows.written",
		metric.WithDescription("Number of rows inserted or updated"),
		metric.WithUnit("{row}"),
	)

	rowsRetrieved, _ := meter.Int64Counter(
		"db.rows.retrieved",
		metric.WithDescription("Number of rows read from the database"),
		metric.WithUnit("{row}"),
	)

	return &DBMetrics{
		queryDuration: queryDuration,
		queryCount:    queryCount,
		errorCount:    errorCount,
		activeQueries: activeQueries,
		rowsWritten:   rowsWritten,
		rowsRetrieved: rowsRetrieved,
	}
}

// Query is one instrumented database call.
type Query struct {
	ctx       context.Context
	span      trace.Span
	log       *zap.Logger
	metrics   *DBMetrics
	operation string
	table     string
	start     time.Time
}

// StartQuery opens a span for operation on table and counts it.
// The caller must finish it with Done, NotFound or Fail.
func StartQuery(ctx context.Context, tracer trace.Tracer, log *zap.Logger, m *DBMetrics, spanName, operation, table string) (context.Context, *Query) {
	ctx, span := tracer.Start(ctx, spanName)

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
	)
	m.activeQueries.Add(ctx, 1, attrs)
	m.queryCount.Add(ctx, 1, attrs)

	span.SetAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)

	return ctx, &Query{
		ctx:       ctx,
		span:      span,
		log:       log,
		metrics:   m,
		operation: operation,
		table:     table,
		start:     time.Now(),
	}
}

func (q *Query) Span() trace.Span { return q.span }

// TraceID is attached to every repository log line.
func (q *Query) TraceID() zap.Field {
	return zap.String("trace_id", q.span.SpanContext().TraceID().String())
}

// Written counts rows persisted by the query.
func (q *Query) Written(n int) {
	q.metrics.rowsWritten.Add(q.ctx, int64(n), metric.WithAttributes(attribute.String("table", q.table)))
}

// Retrieved counts rows read by the query.
func (q *Query) Retrieved(n int) {
	q.metrics.rowsRetrieved.Add(q.ctx, int64(n), metric.WithAttributes(attribute.String("table", q.table)))
}

func (q *Query) Done(message string, fields ...zap.Field) {
	q.finish("success")
	q.span.SetStatus(codes.Ok, message)
	q.log.Debug(message, append(fields, q.TraceID())...)
}

func (q *Query) NotFound(message string, fields ...zap.Field) {
	q.finish("not_found")
	q.span.SetStatus(codes.Ok, message)
	q.log.Info(message, append(fields, q.TraceID())...)
}

func (q *Query) Fail(message string, err error, fields ...zap.Field) {
	q.metrics.errorCount.Add(q.ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", q.operation),
			attribute.String("table", q.table),
		),
	)
	q.finish("error")
	q.span.SetStatus(codes.Error, message)
	q.span.RecordError(err)
	q.log.Error(message, append(fields, q.TraceID(), zap.Error(err))...)
}

func (q *Query) finish(status string) {
	q.metrics.activeQueries.Add(q.ctx, -1,
		metric.WithAttributes(
			attribute.String("operation", q.operation),
			attribute.String("table", q.table),
		),
	)
	q.metrics.queryDuration.Record(q.ctx, float64(time.Since(q.start).Milliseconds()),
		metric.WithAttributes(
			attribute.String("operation", q.operation),
			attribute.String("table", q.table),
			attribute.String("status", status),
		),
	)
	q.span.End()
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/engine"
	"github.com/fazamuttaqien/credit-engine/pkg/common"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Observer carries the request instruments shared by every API handler.
type Observer struct {
	tracer          trace.Tracer
	log             *zap.Logger
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCount      metric.Int64Counter
}

func NewObserver(meter metric.Meter, tracer trace.Tracer, log *zap.Logger) *Observer {
	requestCount, err := meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		log.Fatal("Failed to create request count metric", zap.Error(err))
	}

	requestDuration, err := meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Fatal("Failed to create request duration metric", zap.Error(err))
	}

	errorCount, err := meter.Int64Counter(
		"api.error.count",
		metric.WithDescription("Number of API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		log.Fatal("Failed to create error count metric", zap.Error(err))
	}

	return &Observer{
		tracer:          tracer,
		log:             log,
		requestCount:    requestCount,
		requestDuration: requestDuration,
		errorCount:      errorCount,
	}
}

// Request is the observability state of one HTTP call.
type Request struct {
	Ctx   context.Context
	Span  trace.Span
	start time.Time
}

// Begin opens the handler span. The caller must End the returned span.
func (o *Observer) Begin(c *fiber.Ctx, spanName string) *Request {
	ctx, span := o.tracer.Start(c.UserContext(), spanName)

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.user_agent", string(c.Request().Header.UserAgent())),
		attribute.String("http.client_ip", c.IP()),
	)

	o.log.Debug("Received request",
		zap.String("handler", spanName),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	o.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Route().Path),
		attribute.String("method", c.Method()),
	))

	return &Request{Ctx: ctx, Span: span, start: time.Now()}
}

func (r *Request) End() { r.Span.End() }

// RecordError logs err once, records it on the span and metrics, and writes
// the JSON error body.
func (o *Observer) RecordError(c *fiber.Ctx, r *Request, err error, statusCode int, errorType, message string, fields ...zap.Field) error {
	o.errorCount.Add(r.Ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Route().Path),
		attribute.String("method", c.Method()),
		attribute.String("error_type", errorType),
		attribute.Int("status_code", statusCode),
	))

	duration := o.recordDuration(c, r, statusCode)

	r.Span.SetAttributes(
		attribute.String("error.type", errorType),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)
	r.Span.RecordError(err)
	r.Span.SetStatus(codes.Error, errorType)

	logFields := append([]zap.Field{
		zap.String("trace_id", r.Span.SpanContext().TraceID().String()),
		zap.String("span_id", r.Span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
		zap.Error(err),
	}, fields...)

	if statusCode >= fiber.StatusInternalServerError {
		o.log.Error(message, logFields...)
	} else {
		o.log.Warn(message, logFields...)
	}

	return common.ErrorResponse(c, statusCode, message)
}

// RecordServiceError maps a service error to its HTTP status and records it.
func (o *Observer) RecordServiceError(c *fiber.Ctx, r *Request, err error, fields ...zap.Field) error {
	statusCode, errorType, message := MapError(err)
	return o.RecordError(c, r, err, statusCode, errorType, message, fields...)
}

func (o *Observer) RecordSuccess(c *fiber.Ctx, r *Request, statusCode int, responseData any, fields ...zap.Field) error {
	duration := o.recordDuration(c, r, statusCode)

	r.Span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Float64("request.duration_ms", duration),
	)
	r.Span.SetStatus(codes.Ok, "")

	logFields := append([]zap.Field{
		zap.String("trace_id", r.Span.SpanContext().TraceID().String()),
		zap.String("span_id", r.Span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	}, fields...)

	o.log.Info("Request completed successfully", logFields...)

	return c.Status(statusCode).JSON(responseData)
}

func (o *Observer) recordDuration(c *fiber.Ctx, r *Request, statusCode int) float64 {
	duration := float64(time.Since(r.start).Nanoseconds()) / 1e6
	o.requestDuration.Record(r.Ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Route().Path),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))
	return duration
}

// MapError translates service and engine errors into a status code, an error
// type for metrics, and the message returned to the client.
func MapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return fiber.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, common.ErrCustomerNotFound):
		return fiber.StatusNotFound, "not_found", "Customer not found"
	case errors.Is(err, common.ErrLoanNotFound), errors.Is(err, engine.ErrNotFound):
		return fiber.StatusNotFound, "not_found", "Loan not found"
	case errors.Is(err, engine.ErrInvalidPayment):
		return fiber.StatusUnprocessableEntity, "invalid_payment", err.Error()
	case errors.Is(err, common.ErrWorkbookNotFound):
		return fiber.StatusNotFound, "workbook_not_found", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "timeout", "Request timed out"
	default:
		return fiber.StatusInternalServerError, "internal_error", "Internal server error"
	}
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", engine.ErrValidation, name, c.Params(name))
	}
	return id, nil
}

package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OtelMiddleware records HTTP server metrics for every request. Spans come
// from otelfiber, which must be registered before it.
type OtelMiddleware struct {
	log                       *zap.Logger
	httpRequestCounter        metric.Int64Counter
	httpRequestDuration       metric.Float64Histogram
	httpResponseStatusCounter metric.Int64Counter
	httpRequestSize           metric.Int64Histogram
	httpResponseSize          metric.Int64Histogram
	httpActiveRequests        metric.Int64UpDownCounter
}

func NewOtelMiddleware(meter metric.Meter, log *zap.Logger) *OtelMiddleware {
	httpRequestCounter, _ := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)

	httpRequestDuration, _ := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	httpResponseStatusCounter, _ := meter.Int64Counter(
		"http.server.response.status",
		metric.WithDescription("HTTP response status codes"),
		metric.WithUnit("{status}"),
	)

	httpRequestSize, _ := meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("Size of HTTP requests"),
		metric.WithUnit("bytes"),
	)

	httpResponseSize, _ := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP responses"),
		metric.WithUnit("bytes"),
	)

	httpActiveRequests, _ := meter.Int64UpDownCounter(
		"http.server.active.requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)

	return &OtelMiddleware{
		log:                       log,
		httpRequestCounter:        httpRequestCounter,
		httpRequestDuration:       httpRequestDuration,
		httpResponseStatusCounter: httpResponseStatusCounter,
		httpRequestSize:           httpRequestSize,
		httpResponseSize:          httpResponseSize,
		httpActiveRequests:        httpActiveRequests,
	}
}

func (m *OtelMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		span := trace.SpanFromContext(ctx)
		method := c.Method()
		startTime := time.Now()

		routeAttrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", c.Path()),
		)

		m.httpRequestSize.Record(ctx, int64(len(c.Body())), routeAttrs)
		m.httpRequestCounter.Add(ctx, 1, routeAttrs)
		m.httpActiveRequests.Add(ctx, 1, routeAttrs)
		defer m.httpActiveRequests.Add(ctx, -1, routeAttrs)

		err := c.Next()

		// The matched route is only known after the handler chain ran.
		route := c.Route().Path
		status := c.Response().StatusCode()
		duration := float64(time.Since(startTime).Nanoseconds()) / 1e6
		resContentLength := int64(len(c.Response().Body()))

		statusAttrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)

		m.httpRequestDuration.Record(ctx, duration, statusAttrs)
		m.httpResponseStatusCounter.Add(ctx, 1, statusAttrs)
		m.httpResponseSize.Record(ctx, resContentLength, statusAttrs)

		m.log.Info("HTTP request completed",
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Float64("duration_ms", duration),
			zap.Int64("response_size", resContentLength),
			zap.String("client_ip", c.IP()),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
		)

		return err
	}
}

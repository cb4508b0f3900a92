package customersrv

import (
	"context"
	"fmt"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/engine"
	"github.com/fazamuttaqien/credit-engine/internal/repository"
	"github.com/fazamuttaqien/credit-engine/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type customerService struct {
	customerRepository repository.CustomerRepository

	tracer              trace.Tracer
	log                 *zap.Logger
	operationDuration   metric.Float64Histogram
	operationCount      metric.Int64Counter
	errorCount          metric.Int64Counter
	customersRegistered metric.Int64Counter
}

// Register implements service.CustomerServices. The approved limit is always
// derived from the monthly income; any value on the input is ignored.
func (c *customerService) Register(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	ctx, span := c.tracer.Start(ctx, "service.customer.Register")
	defer span.End()

	start := time.Now()

	c.operationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "register"),
			attribute.String("service", "customer"),
		),
	)

	span.SetAttributes(
		attribute.Int("customer.age", customer.Age),
		attribute.Float64("customer.monthly_income", customer.MonthlyIncome),
	)

	if customer.Age <= 0 || customer.MonthlyIncome < 0 {
		err := fmt.Errorf("%w: age must be positive and income non-negative", engine.ErrValidation)
		c.fail(ctx, span, start, "invalid_customer", err)
		return nil, err
	}

	customer.ApprovedLimit = engine.ApprovedLimit(customer.MonthlyIncome)

	if err := c.customerRepository.Create(ctx, customer); err != nil {
		c.fail(ctx, span, start, "create_failed", err)
		return nil, err
	}

	c.customersRegistered.Add(ctx, 1)

	duration := float64(time.Since(start).Milliseconds())
	c.operationDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "register"),
			attribute.String("service", "customer"),
			attribute.String("status", "success"),
		),
	)

	span.SetStatus(codes.Ok, "Customer registered")
	span.SetAttributes(attribute.Int64("customer.id", int64(customer.ID)))

	c.log.Info("Customer registered",
		zap.Uint64("customer_id", customer.ID),
		zap.Float64("approved_limit", customer.ApprovedLimit),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return customer, nil
}

func (c *customerService) fail(ctx context.Context, span trace.Span, start time.Time, errorType string, err error) {
	span.SetStatus(codes.Error, "Customer registration failed")
	span.RecordError(err)

	c.log.Error("Customer registration failed",
		zap.String("error_type", errorType),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err),
	)

	c.errorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "register"),
			attribute.String("service", "customer"),
			attribute.String("error_type", errorType),
		),
	)

	c.operationDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(
			attribute.String("operation", "register"),
			attribute.String("service", "customer"),
			attribute.String("status", "error"),
		),
	)
}

func NewCustomerService(
	customerRepository repository.CustomerRepository,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.CustomerServices {
	operationDuration, _ := meter.Float64Histogram(
		"service.operation.duration",
		metric.WithDescription("Duration of service operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		"service.operation.count",
		metric.WithDescription("Number of service operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"service.error.count",
		metric.WithDescription("Number of service errors"),
		metric.WithUnit("{error}"),
	)

	customersRegistered, _ := meter.Int64Counter(
		"service.customers.registered",
		metric.WithDescription("Number of customers registered"),
		metric.WithUnit("{customer}"),
	)

	return &customerService{
		customerRepository:  customerRepository,
		tracer:              tracer,
		log:                 log,
		operationDuration:   operationDuration,
		operationCount:      operationCount,
		errorCount:          errorCount,
		customersRegistered: customersRegistered,
	}
}

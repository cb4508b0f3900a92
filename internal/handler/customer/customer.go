package customerhandler

import (
	"context"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/dto"
	"github.com/fazamuttaqien/credit-engine/internal/handler"
	"github.com/fazamuttaqien/credit-engine/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	*handler.Observer
	customerService service.CustomerServices
	validate        *validator.Validate
}

func NewCustomerHandler(
	customerService service.CustomerServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *CustomerHandler {
	return &CustomerHandler{
		Observer:        handler.NewObserver(meter, tracer, log),
		customerService: customerService,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *CustomerHandler) Register(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.Register")
	defer r.End()

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.RecordError(c, r, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.RecordError(c, r, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	r.Span.SetAttributes(
		attribute.Int("customer.age", req.Age),
		attribute.Float64("customer.monthly_income", req.MonthlyIncome),
	)

	serviceCtx, cancel := context.WithTimeout(r.Ctx, 10*time.Second)
	defer cancel()

	customer, err := h.customerService.Register(serviceCtx, dto.RegisterToEntity(req))
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}

	return h.RecordSuccess(c, r, fiber.StatusCreated, dto.RegisterFromEntity(customer),
		zap.Uint64("customer_id", customer.ID),
		zap.Float64("approved_limit", customer.ApprovedLimit),
	)
}

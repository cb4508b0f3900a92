package loanhandler

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

const serviceTimeout = 15 * time.Second

type LoanHandler struct {
	*handler.Observer
	loanService service.LoanServices
	validate    *validator.Validate
}

func NewLoanHandler(
	loanService service.LoanServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *LoanHandler {
	return &LoanHandler{
		Observer:    handler.NewObserver(meter, tracer, log),
		loanService: loanService,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *LoanHandler) parseApplication(c *fiber.Ctx, r *handler.Request) (*dto.EligibilityRequest, error) {
	var req dto.EligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, h.RecordError(c, r, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, h.RecordError(c, r, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	r.Span.SetAttributes(
		attribute.Int64("customer.id", int64(req.CustomerID)),
		attribute.Float64("loan.amount", req.LoanAmount),
		attribute.Float64("loan.interest_rate", req.InterestRate),
		attribute.Int("loan.tenure", req.Tenure),
	)
	return &req, nil
}

func (h *LoanHandler) CheckEligibility(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.CheckEligibility")
	defer r.End()

	req, err := h.parseApplication(c, r)
	if req == nil {
		return err
	}

	serviceCtx, cancel := context.WithTimeout(r.Ctx, serviceTimeout)
	defer cancel()

	result, err := h.loanService.CheckEligibility(serviceCtx, dto.EligibilityToEntity(*req))
	if err != nil {
		return h.RecordServiceError(c, r, err, zap.Uint64("customer_id", req.CustomerID))
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.EligibilityFromEntity(result),
		zap.Uint64("customer_id", result.CustomerID),
		zap.Bool("approved", result.Approved),
		zap.Int("credit_score", result.CreditScore),
	)
}

func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.CreateLoan")
	defer r.End()

	req, err := h.parseApplication(c, r)
	if req == nil {
		return err
	}

	serviceCtx, cancel := context.WithTimeout(r.Ctx, serviceTimeout)
	defer cancel()

	creation, err := h.loanService.CreateLoan(serviceCtx, dto.EligibilityToEntity(*req))
	if err != nil {
		return h.RecordServiceError(c, r, err, zap.Uint64("customer_id", req.CustomerID))
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.CreateLoanFromEntity(creation),
		zap.Uint64("customer_id", creation.CustomerID),
		zap.Bool("approved", creation.Approved),
	)
}

func (h *LoanHandler) ViewLoan(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.ViewLoan")
	defer r.End()

	loanID, err := handler.ParamID(c, "loan_id")
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}
	r.Span.SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	serviceCtx, cancel := context.WithTimeout(r.Ctx, serviceTimeout)
	defer cancel()

	view, err := h.loanService.ViewLoan(serviceCtx, loanID)
	if err != nil {
		return h.RecordServiceError(c, r, err, zap.Uint64("loan_id", loanID))
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.ViewLoanFromEntity(view), zap.Uint64("loan_id", loanID))
}

func (h *LoanHandler) MakePayment(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.MakePayment")
	defer r.End()

	customerID, err := handler.ParamID(c, "customer_id")
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}
	loanID, err := handler.ParamID(c, "loan_id")
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}

	var req dto.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.RecordError(c, r, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.RecordError(c, r, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	r.Span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("loan.id", int64(loanID)),
		attribute.Float64("payment.amount", req.Amount),
	)

	serviceCtx, cancel := context.WithTimeout(r.Ctx, serviceTimeout)
	defer cancel()

	receipt, err := h.loanService.MakePayment(serviceCtx, customerID, loanID, req.Amount)
	if err != nil {
		return h.RecordServiceError(c, r, err,
			zap.Uint64("customer_id", customerID),
			zap.Uint64("loan_id", loanID),
		)
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.PaymentFromEntity(receipt),
		zap.Uint64("customer_id", customerID),
		zap.Uint64("loan_id", loanID),
		zap.String("reference", receipt.Payment.Reference),
	)
}

func (h *LoanHandler) ViewStatement(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.ViewStatement")
	defer r.End()

	customerID, err := handler.ParamID(c, "customer_id")
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}
	loanID, err := handler.ParamID(c, "loan_id")
	if err != nil {
		return h.RecordServiceError(c, r, err)
	}

	serviceCtx, cancel := context.WithTimeout(r.Ctx, serviceTimeout)
	defer cancel()

	statement, err := h.loanService.ViewStatement(serviceCtx, customerID, loanID)
	if err != nil {
		return h.RecordServiceError(c, r, err,
			zap.Uint64("customer_id", customerID),
			zap.Uint64("loan_id", loanID),
		)
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.StatementFromEntity(statement),
		zap.Uint64("customer_id", customerID),
		zap.Uint64("loan_id", loanID),
	)
}

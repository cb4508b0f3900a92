package adminhandler

import (
	"context"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/dto"
	"github.com/fazamuttaqien/credit-engine/internal/handler"
	"github.com/fazamuttaqien/credit-engine/internal/service"
	"github.com/fazamuttaqien/credit-engine/middleware"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// importTimeout bounds a manual re-import; large workbooks take a while.
const importTimeout = 5 * time.Minute

type AdminHandler struct {
	*handler.Observer
	importService service.ImportServices
}

func NewAdminHandler(
	importService service.ImportServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		Observer:      handler.NewObserver(meter, tracer, log),
		importService: importService,
	}
}

func (h *AdminHandler) Import(c *fiber.Ctx) error {
	r := h.Begin(c, "handler.Import")
	defer r.End()

	var requestedBy string
	if claims, err := middleware.GetClaimsFromLocals(c); err == nil {
		requestedBy = claims.Subject
		r.Span.SetAttributes(attribute.String("admin.subject", requestedBy))
	}

	serviceCtx, cancel := context.WithTimeout(r.Ctx, importTimeout)
	defer cancel()

	summary, err := h.importService.Run(serviceCtx)
	if err != nil {
		return h.RecordServiceError(c, r, err, zap.String("requested_by", requestedBy))
	}

	return h.RecordSuccess(c, r, fiber.StatusOK, dto.ImportFromEntity(summary),
		zap.String("requested_by", requestedBy),
		zap.Int("customers", summary.Customers),
		zap.Int("loans", summary.Loans),
	)
}

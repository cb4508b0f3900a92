package router

import (
	"errors"
	"time"

	"github.com/fazamuttaqien/credit-engine/config"
	mysqldb "github.com/fazamuttaqien/credit-engine/infra/mysql"
	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/middleware"
	ratelimiter "github.com/fazamuttaqien/credit-engine/pkg/rate-limiter"
	"github.com/fazamuttaqien/credit-engine/pkg/telemetry"
	"github.com/fazamuttaqien/credit-engine/presenter"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(
	presenter presenter.Presenter,
	db *gorm.DB,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
	limiter *ratelimiter.RateLimiter,
) *fiber.App {

	jwtAuth := middleware.NewJWTAuthMiddleware(cfg.JWT_SECRET_KEY)
	requireAdmin := middleware.RequireRole(domain.AdminRole, domain.OperatorRole)

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorCustomHandler(tel.Log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DEV_MODE}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(otelfiber.Middleware(
		otelfiber.WithTracerProvider(tel.TracerProvider),
		otelfiber.WithMeterProvider(tel.MeterProvider),
		otelfiber.WithPropagators(otel.GetTextMapPropagator()),
	))

	if cfg.REQUESTS_METRIC {
		tel.Log.Info("Enabling HTTP request metrics middleware")
		app.Use(middleware.NewOtelMiddleware(tel.Meter("fiber-middleware"), tel.Log).Handle())
	} else {
		tel.Log.Info("HTTP request metrics middleware is disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := mysqldb.Ping(c.UserContext(), db); err != nil {
			tel.Log.Error("Health check failed: database ping error", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"service":     cfg.SERVICE_NAME,
			"version":     cfg.SERVICE_VERSION,
			"environment": cfg.ENVIRONMENT,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api/v1")

	api.Use(limiter.RateLimitMiddleware())

	RegisterRoutes(api, presenter, jwtAuth, requireAdmin)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Resource not found",
			"path":  c.Path(),
		})
	})

	return app
}

// RegisterRoutes mounts the API endpoints on r. The admin group is guarded by
// the given middlewares.
func RegisterRoutes(r fiber.Router, presenter presenter.Presenter, adminGuards ...fiber.Handler) {
	r.Post("/register", presenter.CustomerPresenter.Register)

	r.Post("/check-eligibility", presenter.LoanPresenter.CheckEligibility)
	r.Post("/create-loan", presenter.LoanPresenter.CreateLoan)
	r.Get("/view-loan/:loan_id", presenter.LoanPresenter.ViewLoan)
	r.Post("/make-payment/:customer_id/:loan_id", presenter.LoanPresenter.MakePayment)
	r.Get("/view-statement/:customer_id/:loan_id", presenter.LoanPresenter.ViewStatement)

	adminAPI := r.Group("/admin", adminGuards...)
	{
		adminAPI.Post("/import", presenter.AdminPresenter.Import)
	}
}

func ErrorCustomHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		log.Error("Request error occurred",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status_code", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}

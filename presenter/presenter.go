package presenter

import (
	"github.com/fazamuttaqien/credit-engine/config"
	"github.com/fazamuttaqien/credit-engine/internal/importer"
	adminhandler "github.com/fazamuttaqien/credit-engine/internal/handler/admin"
	customerhandler "github.com/fazamuttaqien/credit-engine/internal/handler/customer"
	loanhandler "github.com/fazamuttaqien/credit-engine/internal/handler/loan"
	customerrepo "github.com/fazamuttaqien/credit-engine/internal/repository/customer"
	loanrepo "github.com/fazamuttaqien/credit-engine/internal/repository/loan"
	paymentrepo "github.com/fazamuttaqien/credit-engine/internal/repository/payment"
	"github.com/fazamuttaqien/credit-engine/internal/repository/scorecache"
	customersrv "github.com/fazamuttaqien/credit-engine/internal/service/customer"
	loansrv "github.com/fazamuttaqien/credit-engine/internal/service/loan"

	"github.com/fazamuttaqien/credit-engine/pkg/telemetry"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Presenter struct {
	CustomerPresenter *customerhandler.CustomerHandler
	LoanPresenter     *loanhandler.LoanHandler
	AdminPresenter    *adminhandler.AdminHandler
	Importer          *importer.Importer
}

func NewPresenter(
	db *gorm.DB,
	redisClient redis.Cmdable,
	cfg *config.Config,
	tel *telemetry.OpenTelemetry,
) Presenter {
	// Repository
	customerRepository := customerrepo.NewCustomerRepository(
		db,
		tel.Meter("customer-repository-meter"),
		tel.Tracer("customer-repository-tracer"),
		tel.Log,
	)

	loanRepository := loanrepo.NewLoanRepository(
		db,
		tel.Meter("loan-repository-meter"),
		tel.Tracer("loan-repository-tracer"),
		tel.Log,
	)

	paymentRepository := paymentrepo.NewPaymentRepository(
		db,
		tel.Meter("payment-repository-meter"),
		tel.Tracer("payment-repository-tracer"),
		tel.Log,
	)

	scoreCache := scorecache.NewScoreCache(
		redisClient,
		cfg.SCORE_CACHE_TTL,
		tel.Meter("score-cache-meter"),
		tel.Tracer("score-cache-tracer"),
		tel.Log,
	)

	// Service
	customerService := customersrv.NewCustomerService(
		customerRepository,
		tel.Meter("customer-service-meter"),
		tel.Tracer("customer-service-trace"),
		tel.Log,
	)

	loanService := loansrv.NewLoanService(
		customerRepository,
		loanRepository,
		paymentRepository,
		scoreCache,
		nil,
		tel.Meter("loan-service-meter"),
		tel.Tracer("loan-service-trace"),
		tel.Log,
	)

	workbookImporter := importer.NewImporter(
		customerRepository,
		loanRepository,
		scoreCache,
		cfg.CUSTOMER_DATA_PATH,
		cfg.LOAN_DATA_PATH,
		tel.Meter("importer-meter"),
		tel.Tracer("importer-trace"),
		tel.Log,
	)

	// Handler
	customerHandler := customerhandler.NewCustomerHandler(
		customerService,
		tel.Meter("customer-handler-meter"),
		tel.Tracer("customer-handler-trace"),
		tel.Log,
	)

	loanHandler := loanhandler.NewLoanHandler(
		loanService,
		tel.Meter("loan-handler-meter"),
		tel.Tracer("loan-handler-trace"),
		tel.Log,
	)

	adminHandler := adminhandler.NewAdminHandler(
		workbookImporter,
		tel.Meter("admin-handler-meter"),
		tel.Tracer("admin-handler-trace"),
		tel.Log,
	)

	return Presenter{
		CustomerPresenter: customerHandler,
		LoanPresenter:     loanHandler,
		AdminPresenter:    adminHandler,
		Importer:          workbookImporter,
	}
}

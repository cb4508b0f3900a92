package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	adminhandler "github.com/fazamuttaqien/credit-engine/internal/handler/admin"
	customerhandler "github.com/fazamuttaqien/credit-engine/internal/handler/customer"
	loanhandler "github.com/fazamuttaqien/credit-engine/internal/handler/loan"
	"github.com/fazamuttaqien/credit-engine/middleware"
	"github.com/fazamuttaqien/credit-engine/presenter"
	"github.com/fazamuttaqien/credit-engine/router"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	noop_metric "go.opentelemetry.io/otel/metric/noop"
	noop_trace "go.opentelemetry.io/otel/trace/noop"

	"go.uber.org/zap"
)

const testJWTSecret = "test-admin-secret-key"

type testServices struct {
	customers *MockCustomerService
	loans     *MockLoanService
	imports   *MockImportService
}

// newTestApp mounts the real API routes on a bare fiber app backed by mocks.
func newTestApp() (*fiber.App, *testServices) {
	log := zap.NewNop()
	meter := noop_metric.NewMeterProvider().Meter("test-handler-meter")
	tracer := noop_trace.NewTracerProvider().Tracer("test-handler-tracer")

	services := &testServices{
		customers: &MockCustomerService{},
		loans:     &MockLoanService{},
		imports:   &MockImportService{},
	}

	p := presenter.Presenter{
		CustomerPresenter: customerhandler.NewCustomerHandler(services.customers, meter, tracer, log),
		LoanPresenter:     loanhandler.NewLoanHandler(services.loans, meter, tracer, log),
		AdminPresenter:    adminhandler.NewAdminHandler(services.imports, meter, tracer, log),
	}

	app := fiber.New(fiber.Config{ErrorHandler: router.ErrorCustomHandler(log)})
	router.RegisterRoutes(app, p,
		middleware.NewJWTAuthMiddleware(testJWTSecret),
		middleware.RequireRole(domain.AdminRole, domain.OperatorRole),
	)

	return app, services
}

func signedToken(t *testing.T, secret string, role domain.Role, ttl time.Duration) string {
	claims := &domain.JwtCustomClaims{
		Subject: "ops@example.com",
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func createJSONRequest(t *testing.T, method, url string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

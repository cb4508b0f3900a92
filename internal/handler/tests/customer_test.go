package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/engine"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CustomerHandlerTestSuite struct {
	suite.Suite
	app      *fiber.App
	services *testServices
}

func (suite *CustomerHandlerTestSuite) SetupTest() {
	suite.app, suite.services = newTestApp()
}

func (suite *CustomerHandlerTestSuite) validBody() map[string]any {
	return map[string]any{
		"first_name":     " Aarav ",
		"last_name":      "Sharma",
		"age":            31,
		"monthly_income": 75000.0,
		"phone_number":   "9876543210",
	}
}

func (suite *CustomerHandlerTestSuite) TestRegister() {
	t := suite.T()

	suite.Run("Success - Customer Registered", func() {
		suite.services.customers.Reset()
		suite.services.customers.MockCustomer = &domain.Customer{
			ID:            42,
			FirstName:     "Aarav",
			LastName:      "Sharma",
			Age:           31,
			MonthlyIncome: 75000,
			ApprovedLimit: 2700000,
			PhoneNumber:   "9876543210",
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/register", suite.validBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Successfully registered", body["message"])

		customer := body["customer"].(map[string]any)
		assert.Equal(t, float64(42), customer["customer_id"])
		assert.Equal(t, "Aarav Sharma", customer["name"])
		assert.Equal(t, float64(2700000), customer["approved_limit"])

		assert.Equal(t, "Aarav", suite.services.customers.LastCustomer.FirstName)
	})

	suite.Run("Failure - Malformed JSON", func() {
		suite.services.customers.Reset()
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := suite.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, suite.services.customers.RegisterCalls)
	})

	suite.Run("Failure - Missing Fields", func() {
		suite.services.customers.Reset()
		body := suite.validBody()
		delete(body, "phone_number")
		body["age"] = 0

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/register", body))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Validation failed", decodeBody(t, resp)["error"])
		assert.Zero(t, suite.services.customers.RegisterCalls)
	})

	suite.Run("Failure - Service Validation", func() {
		suite.services.customers.Reset()
		suite.services.customers.MockError = engine.ErrValidation

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/register", suite.validBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	suite.Run("Failure - Storage Error", func() {
		suite.services.customers.Reset()
		suite.services.customers.MockError = errors.New("connection reset")

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/register", suite.validBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal server error", decodeBody(t, resp)["error"])
	})
}

func TestCustomerHandlerSuite(t *testing.T) {
	suite.Run(t, new(CustomerHandlerTestSuite))
}

package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/engine"
	"github.com/fazamuttaqien/credit-engine/pkg/common"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LoanHandlerTestSuite struct {
	suite.Suite
	app      *fiber.App
	services *testServices
}

func (suite *LoanHandlerTestSuite) SetupTest() {
	suite.app, suite.services = newTestApp()
}

func referenceLoan() domain.HistoricalLoan {
	return domain.HistoricalLoan{
		ID:                 7,
		CustomerID:         1,
		LoanAmount:         100000,
		InterestRate:       10,
		Tenure:             12,
		MonthlyInstallment: 8791.59,
		EMIsPaidOnTime:     4,
	}
}

func applicationBody() map[string]any {
	return map[string]any{
		"customer_id":   1,
		"loan_amount":   100000.0,
		"interest_rate": 15.0,
		"tenure":        12,
	}
}

func (suite *LoanHandlerTestSuite) TestCheckEligibility() {
	t := suite.T()

	suite.Run("Success - Rate Corrected", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockEligibility = &domain.EligibilityResult{
			CustomerID:            1,
			Approved:              true,
			InterestRate:          15,
			CorrectedInterestRate: 12,
			Tenure:                12,
			MonthlyInstallment:    8884.88,
			CreditScore:           40,
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/check-eligibility", applicationBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["approval"])
		assert.Equal(t, float64(12), body["corrected_interest_rate"])
		assert.Equal(t, float64(40), body["credit_score"])
		assert.NotContains(t, body, "rejection_reason")

		assert.Equal(t, domain.LoanApplication{CustomerID: 1, LoanAmount: 100000, InterestRate: 15, Tenure: 12},
			suite.services.loans.LastApplication)
	})

	suite.Run("Success - Rejection Carries Reason", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockEligibility = &domain.EligibilityResult{
			CustomerID:      1,
			RejectionReason: engine.ReasonLowCreditScore,
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/check-eligibility", applicationBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, false, body["approval"])
		assert.Equal(t, engine.ReasonLowCreditScore, body["rejection_reason"])
	})

	suite.Run("Failure - Tenure Missing", func() {
		suite.services.loans.Reset()
		body := applicationBody()
		delete(body, "tenure")

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/check-eligibility", body))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, suite.services.loans.Calls)
	})

	suite.Run("Failure - Customer Not Found", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockError = common.ErrCustomerNotFound

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/check-eligibility", applicationBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Customer not found", decodeBody(t, resp)["error"])
	})
}

func (suite *LoanHandlerTestSuite) TestCreateLoan() {
	t := suite.T()

	suite.Run("Success - Loan Approved", func() {
		suite.services.loans.Reset()
		loanID := uint64(31)
		suite.services.loans.MockCreation = &domain.LoanCreation{
			LoanID:             &loanID,
			CustomerID:         1,
			Approved:           true,
			Message:            "Loan approved",
			MonthlyInstallment: 8884.88,
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/create-loan", applicationBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(31), body["loan_id"])
		assert.Equal(t, true, body["loan_approved"])
	})

	suite.Run("Success - Loan Not Approved Has Null ID", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockCreation = &domain.LoanCreation{
			CustomerID: 1,
			Message:    "Loan not approved: " + engine.ReasonEMIOverloaded,
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/create-loan", applicationBody()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body, "loan_id")
		assert.Nil(t, body["loan_id"])
		assert.Equal(t, false, body["loan_approved"])
		assert.Equal(t, "Loan not approved: "+engine.ReasonEMIOverloaded, body["message"])
	})
}

func (suite *LoanHandlerTestSuite) TestViewLoan() {
	t := suite.T()

	suite.Run("Success - Customer Details Included", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockView = &domain.LoanView{
			Loan:     referenceLoan(),
			Customer: &domain.Customer{ID: 1, FirstName: "Aarav", LastName: "Sharma", Age: 31, PhoneNumber: "9876543210"},
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-loan/7", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, uint64(7), suite.services.loans.LastLoanID)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(8791.59), body["monthly_installment"])
		customer := body["customer"].(map[string]any)
		assert.Equal(t, "Aarav", customer["first_name"])
		assert.Equal(t, float64(31), customer["age"])
	})

	suite.Run("Success - Missing Customer Uses Placeholders", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockView = &domain.LoanView{Loan: referenceLoan()}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-loan/7", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		customer := decodeBody(t, resp)["customer"].(map[string]any)
		assert.Equal(t, float64(1), customer["id"])
		assert.Equal(t, "NA", customer["first_name"])
		assert.Equal(t, "NA", customer["age"])
	})

	suite.Run("Failure - Loan Not Found", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockError = common.ErrLoanNotFound

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-loan/99", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	suite.Run("Failure - Non Numeric ID", func() {
		suite.services.loans.Reset()

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-loan/abc", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, suite.services.loans.Calls)
	})
}

func (suite *LoanHandlerTestSuite) TestMakePayment() {
	t := suite.T()

	suite.Run("Success - Pending EMIs", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockReceipt = &domain.PaymentReceipt{
			Payment: domain.Payment{
				Reference:        "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
				LoanID:           7,
				CustomerID:       1,
				Amount:           8791.59,
				Outcome:          domain.OutcomePendingEMIs,
				RemainingBalance: 141541.13,
			},
			Loan:    referenceLoan(),
			Message: "Successfully paid and 16 remaining EMI(s) left",
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/make-payment/1/7", map[string]any{"amount": 8791.59}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, uint64(1), suite.services.loans.LastCustomerID)
		assert.Equal(t, uint64(7), suite.services.loans.LastLoanID)
		assert.Equal(t, 8791.59, suite.services.loans.LastAmount)

		body := decodeBody(t, resp)
		assert.Equal(t, "Successfully paid and 16 remaining EMI(s) left", body["message"])
		assert.Equal(t, 141541.13, body["remaining_balance"])
		assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", body["reference"])
	})

	suite.Run("Failure - Overpayment", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockError = fmt.Errorf("%w: payment exceeds entire loan amount", engine.ErrInvalidPayment)

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/make-payment/1/7", map[string]any{"amount": 150332.73}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, decodeBody(t, resp)["error"], "exceeds entire loan amount")
	})

	suite.Run("Failure - Loan Not Owned By Customer", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockError = fmt.Errorf("%w: loan 7 for customer 2", engine.ErrNotFound)

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/make-payment/2/7", map[string]any{"amount": 100.0}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	suite.Run("Failure - Zero Amount", func() {
		suite.services.loans.Reset()

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/make-payment/1/7", map[string]any{"amount": 0}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, suite.services.loans.Calls)
	})

	suite.Run("Failure - Zero Customer ID", func() {
		suite.services.loans.Reset()

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodPost, "/make-payment/0/7", map[string]any{"amount": 100.0}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, suite.services.loans.Calls)
	})
}

func (suite *LoanHandlerTestSuite) TestViewStatement() {
	t := suite.T()

	suite.Run("Success - Statement", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockStatement = &domain.Statement{
			CustomerID:         1,
			LoanID:             7,
			PrincipalRemaining: 150332.72,
			InterestRate:       10,
			AmountPaid:         35166.36,
			MonthlyInstallment: 8791.59,
			RepaymentsLeft:     8,
		}

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-statement/1/7", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, 150332.72, body["principle_amount"])
		assert.Equal(t, 35166.36, body["amount_paid"])
		assert.Equal(t, float64(8), body["repayments_left"])
	})

	suite.Run("Failure - Unknown Pair", func() {
		suite.services.loans.Reset()
		suite.services.loans.MockError = fmt.Errorf("%w: loan 8 for customer 1", engine.ErrNotFound)

		resp, err := suite.app.Test(createJSONRequest(t, http.MethodGet, "/view-statement/1/8", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestLoanHandlerSuite(t *testing.T) {
	suite.Run(t, new(LoanHandlerTestSuite))
}

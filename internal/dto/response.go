package dto

import (
	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

// notAvailable fills customer fields when a loan's customer is unknown.
const notAvailable = "NA"

type CustomerResponse struct {
	CustomerID    uint64  `json:"customer_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthly_income"`
	ApprovedLimit float64 `json:"approved_limit"`
	PhoneNumber   string  `json:"phone_number"`
}

type RegisterResponse struct {
	Message  string           `json:"message"`
	Customer CustomerResponse `json:"customer"`
}

type EligibilityResponse struct {
	CustomerID            uint64  `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
	CreditScore           int     `json:"credit_score"`
	RejectionReason       string  `json:"rejection_reason,omitempty"`
}

type CreateLoanResponse struct {
	LoanID             *uint64 `json:"loan_id"`
	CustomerID         uint64  `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

// LoanCustomerResponse uses "NA" strings when the customer record is missing,
// so ID is the only field with a fixed type.
type LoanCustomerResponse struct {
	ID          uint64 `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         any    `json:"age"`
}

type ViewLoanResponse struct {
	LoanID             uint64               `json:"loan_id"`
	Customer           LoanCustomerResponse `json:"customer"`
	LoanAmount         float64              `json:"loan_amount"`
	InterestRate       float64              `json:"interest_rate"`
	MonthlyInstallment float64              `json:"monthly_installment"`
	Tenure             int                  `json:"tenure"`
}

type PaymentResponse struct {
	LoanID             uint64  `json:"loan_id"`
	CustomerID         uint64  `json:"customer_id"`
	LoanAmount         float64 `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	Tenure             int     `json:"tenure"`
	Reference          string  `json:"reference"`
	RemainingBalance   float64 `json:"remaining_balance"`
	Message            string  `json:"message"`
}

type StatementResponse struct {
	CustomerID         uint64  `json:"customer_id"`
	LoanID             uint64  `json:"loan_id"`
	PrincipleAmount    float64 `json:"principle_amount"`
	InterestRate       float64 `json:"interest_rate"`
	AmountPaid         float64 `json:"amount_paid"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

type ImportResponse struct {
	Message   string `json:"message"`
	Customers int    `json:"customers"`
	Loans     int    `json:"loans"`
}

// --- Mapping --- //

func RegisterFromEntity(customer *domain.Customer) RegisterResponse {
	return RegisterResponse{
		Message: "Successfully registered",
		Customer: CustomerResponse{
			CustomerID:    customer.ID,
			Name:          customer.Name(),
			Age:           customer.Age,
			MonthlyIncome: customer.MonthlyIncome,
			ApprovedLimit: customer.ApprovedLimit,
			PhoneNumber:   customer.PhoneNumber,
		},
	}
}

func EligibilityFromEntity(result *domain.EligibilityResult) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            result.CustomerID,
		Approval:              result.Approved,
		InterestRate:          result.InterestRate,
		CorrectedInterestRate: result.CorrectedInterestRate,
		Tenure:                result.Tenure,
		MonthlyInstallment:    result.MonthlyInstallment,
		CreditScore:           result.CreditScore,
		RejectionReason:       result.RejectionReason,
	}
}

func CreateLoanFromEntity(creation *domain.LoanCreation) CreateLoanResponse {
	return CreateLoanResponse{
		LoanID:             creation.LoanID,
		CustomerID:         creation.CustomerID,
		LoanApproved:       creation.Approved,
		Message:            creation.Message,
		MonthlyInstallment: creation.MonthlyInstallment,
	}
}

func ViewLoanFromEntity(view *domain.LoanView) ViewLoanResponse {
	customer := LoanCustomerResponse{
		ID:          view.Loan.CustomerID,
		FirstName:   notAvailable,
		LastName:    notAvailable,
		PhoneNumber: notAvailable,
		Age:         notAvailable,
	}
	if c := view.Customer; c != nil {
		customer = LoanCustomerResponse{
			ID:          c.ID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		}
	}

	return ViewLoanResponse{
		LoanID:             view.Loan.ID,
		Customer:           customer,
		LoanAmount:         view.Loan.LoanAmount,
		InterestRate:       view.Loan.InterestRate,
		MonthlyInstallment: view.Loan.MonthlyInstallment,
		Tenure:             view.Loan.Tenure,
	}
}

func PaymentFromEntity(receipt *domain.PaymentReceipt) PaymentResponse {
	return PaymentResponse{
		LoanID:             receipt.Loan.ID,
		CustomerID:         receipt.Loan.CustomerID,
		LoanAmount:         receipt.Loan.LoanAmount,
		InterestRate:       receipt.Loan.InterestRate,
		MonthlyInstallment: receipt.Loan.MonthlyInstallment,
		Tenure:             receipt.Loan.Tenure,
		Reference:          receipt.Payment.Reference,
		RemainingBalance:   receipt.Payment.RemainingBalance,
		Message:            receipt.Message,
	}
}

func StatementFromEntity(statement *domain.Statement) StatementResponse {
	return StatementResponse{
		CustomerID:         statement.CustomerID,
		LoanID:             statement.LoanID,
		PrincipleAmount:    statement.PrincipalRemaining,
		InterestRate:       statement.InterestRate,
		AmountPaid:         statement.AmountPaid,
		MonthlyInstallment: statement.MonthlyInstallment,
		RepaymentsLeft:     statement.RepaymentsLeft,
	}
}

func ImportFromEntity(summary domain.ImportSummary) ImportResponse {
	return ImportResponse{
		Message:   "Workbooks imported",
		Customers: summary.Customers,
		Loans:     summary.Loans,
	}
}

package dto

import (
	"strings"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

type RegisterRequest struct {
	FirstName     string  `json:"first_name" validate:"required,max=100"`
	LastName      string  `json:"last_name" validate:"required,max=100"`
	Age           int     `json:"age" validate:"required,gt=0,lt=150"`
	MonthlyIncome float64 `json:"monthly_income" validate:"required,gt=0"`
	PhoneNumber   string  `json:"phone_number" validate:"required,numeric,min=7,max=15"`
}

type EligibilityRequest struct {
	CustomerID   uint64  `json:"customer_id" validate:"required"`
	LoanAmount   float64 `json:"loan_amount" validate:"required,gt=0"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	Tenure       int     `json:"tenure" validate:"required,gt=0,lte=600"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// --- Mapping --- //

func RegisterToEntity(req RegisterRequest) *domain.Customer {
	return &domain.Customer{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Age:           req.Age,
		MonthlyIncome: req.MonthlyIncome,
		PhoneNumber:   req.PhoneNumber,
	}
}

func EligibilityToEntity(req EligibilityRequest) domain.LoanApplication {
	return domain.LoanApplication{
		CustomerID:   req.CustomerID,
		LoanAmount:   req.LoanAmount,
		InterestRate: req.InterestRate,
		Tenure:       req.Tenure,
	}
}

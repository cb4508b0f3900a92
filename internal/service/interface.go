package service

import (
	"context"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

type CustomerServices interface {
	Register(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

type LoanServices interface {
	CheckEligibility(ctx context.Context, application domain.LoanApplication) (*domain.EligibilityResult, error)
	CreateLoan(ctx context.Context, application domain.LoanApplication) (*domain.LoanCreation, error)
	ViewLoan(ctx context.Context, loanID uint64) (*domain.LoanView, error)
	MakePayment(ctx context.Context, customerID, loanID uint64, amount float64) (*domain.PaymentReceipt, error)
	ViewStatement(ctx context.Context, customerID, loanID uint64) (*domain.Statement, error)
}

type ImportServices interface {
	Run(ctx context.Context) (domain.ImportSummary, error)
}

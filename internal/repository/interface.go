package repository

import (
	"context"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

// Finders return (nil, nil) when no row matches.

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id uint64) (*domain.Customer, error)
	UpsertMany(ctx context.Context, customers []domain.Customer) error
	ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]struct{}, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.HistoricalLoan) error
	FindByID(ctx context.Context, id uint64) (*domain.HistoricalLoan, error)
	FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.HistoricalLoan, error)
	UpsertMany(ctx context.Context, loans []domain.HistoricalLoan) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error)
}

// ScoreCache keeps computed credit reports per customer and calendar year.
type ScoreCache interface {
	Get(ctx context.Context, customerID uint64, year int) (*domain.CreditReport, error)
	Set(ctx context.Context, report domain.CreditReport) error
	Invalidate(ctx context.Context, customerID uint64) error
	Flush(ctx context.Context) error
}

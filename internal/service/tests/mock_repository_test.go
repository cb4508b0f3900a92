package service_test

import (
	"context"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

type mockCustomerRepository struct {
	// Fields to control mock behavior
	MockFindByIDData *domain.Customer
	MockCreateID     uint64
	MockError        error

	// Fields to capture calls
	CreateCalledWith   *domain.Customer
	FindByIDCalledWith uint64
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.CreateCalledWith = customer
	if m.MockError != nil {
		return m.MockError
	}
	customer.ID = m.MockCreateID
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	m.FindByIDCalledWith = id
	if m.MockError != nil {
		return nil, m.MockError
	}
	if m.MockFindByIDData != nil && m.MockFindByIDData.ID == id {
		return m.MockFindByIDData, nil
	}
	return nil, nil
}

// Not exercised by the services.
func (m *mockCustomerRepository) UpsertMany(ctx context.Context, customers []domain.Customer) error {
	return nil
}
func (m *mockCustomerRepository) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]struct{}, error) {
	return nil, nil
}

type mockLoanRepository struct {
	MockLoans    []domain.HistoricalLoan
	MockCreateID uint64
	MockError    error

	CreateCalledWith *domain.HistoricalLoan
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *domain.HistoricalLoan) error {
	m.CreateCalledWith = loan
	if m.MockError != nil {
		return m.MockError
	}
	loan.ID = m.MockCreateID
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint64) (*domain.HistoricalLoan, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	for i := range m.MockLoans {
		if m.MockLoans[i].ID == id {
			loan := m.MockLoans[i]
			return &loan, nil
		}
	}
	return nil, nil
}

func (m *mockLoanRepository) FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.HistoricalLoan, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	var owned []domain.HistoricalLoan
	for _, loan := range m.MockLoans {
		if loan.CustomerID == customerID {
			owned = append(owned, loan)
		}
	}
	return owned, nil
}

func (m *mockLoanRepository) UpsertMany(ctx context.Context, loans []domain.HistoricalLoan) error {
	return nil
}

type mockPaymentRepository struct {
	MockError error

	Created []domain.Payment
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.MockError != nil {
		return m.MockError
	}
	payment.ID = uint64(len(m.Created) + 1)
	m.Created = append(m.Created, *payment)
	return nil
}

func (m *mockPaymentRepository) FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error) {
	return m.Created, m.MockError
}

type mockScoreCache struct {
	MockReport *domain.CreditReport
	MockError  error

	SetCalledWith    *domain.CreditReport
	InvalidatedFor   []uint64
	GetCalledForYear int
}

func (m *mockScoreCache) Get(ctx context.Context, customerID uint64, year int) (*domain.CreditReport, error) {
	m.GetCalledForYear = year
	return m.MockReport, m.MockError
}

func (m *mockScoreCache) Set(ctx context.Context, report domain.CreditReport) error {
	m.SetCalledWith = &report
	return m.MockError
}

func (m *mockScoreCache) Invalidate(ctx context.Context, customerID uint64) error {
	m.InvalidatedFor = append(m.InvalidatedFor, customerID)
	return m.MockError
}

func (m *mockScoreCache) Flush(ctx context.Context) error {
	return m.MockError
}

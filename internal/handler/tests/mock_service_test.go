package handler_test

import (
	"context"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

type MockCustomerService struct {
	MockCustomer *domain.Customer
	MockError    error

	RegisterCalls int
	LastCustomer  *domain.Customer
}

func (m *MockCustomerService) Register(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	m.RegisterCalls++
	m.LastCustomer = customer
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCustomer, nil
}

func (m *MockCustomerService) Reset() {
	m.MockCustomer = nil
	m.MockError = nil
	m.RegisterCalls = 0
	m.LastCustomer = nil
}

type MockLoanService struct {
	MockEligibility *domain.EligibilityResult
	MockCreation    *domain.LoanCreation
	MockView        *domain.LoanView
	MockReceipt     *domain.PaymentReceipt
	MockStatement   *domain.Statement
	MockError       error

	LastApplication domain.LoanApplication
	LastCustomerID  uint64
	LastLoanID      uint64
	LastAmount      float64
	Calls           int
}

func (m *MockLoanService) CheckEligibility(ctx context.Context, application domain.LoanApplication) (*domain.EligibilityResult, error) {
	m.Calls++
	m.LastApplication = application
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockEligibility, nil
}

func (m *MockLoanService) CreateLoan(ctx context.Context, application domain.LoanApplication) (*domain.LoanCreation, error) {
	m.Calls++
	m.LastApplication = application
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCreation, nil
}

func (m *MockLoanService) ViewLoan(ctx context.Context, loanID uint64) (*domain.LoanView, error) {
	m.Calls++
	m.LastLoanID = loanID
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockView, nil
}

func (m *MockLoanService) MakePayment(ctx context.Context, customerID, loanID uint64, amount float64) (*domain.PaymentReceipt, error) {
	m.Calls++
	m.LastCustomerID = customerID
	m.LastLoanID = loanID
	m.LastAmount = amount
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockReceipt, nil
}

func (m *MockLoanService) ViewStatement(ctx context.Context, customerID, loanID uint64) (*domain.Statement, error) {
	m.Calls++
	m.LastCustomerID = customerID
	m.LastLoanID = loanID
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockStatement, nil
}

func (m *MockLoanService) Reset() {
	*m = MockLoanService{}
}

type MockImportService struct {
	MockSummary domain.ImportSummary
	MockError   error
	Runs        int
}

func (m *MockImportService) Run(ctx context.Context) (domain.ImportSummary, error) {
	m.Runs++
	return m.MockSummary, m.MockError
}

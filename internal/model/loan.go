package model

import (
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

func LoanFromEntity(data *domain.HistoricalLoan) Loan {
	return Loan{
		ID:                 data.ID,
		CustomerID:         data.CustomerID,
		LoanAmount:         data.LoanAmount,
		InterestRate:       data.InterestRate,
		Tenure:             data.Tenure,
		MonthlyInstallment: data.MonthlyInstallment,
		EMIsPaidOnTime:     data.EMIsPaidOnTime,
		PaidOnTime:         data.PaidOnTime,
		ApprovalDate:       datePtr(data.ApprovalDate),
		EndDate:            datePtr(data.EndDate),
	}
}

func LoanToEntity(data Loan) *domain.HistoricalLoan {
	return &domain.HistoricalLoan{
		ID:                 data.ID,
		CustomerID:         data.CustomerID,
		LoanAmount:         data.LoanAmount,
		InterestRate:       data.InterestRate,
		Tenure:             data.Tenure,
		MonthlyInstallment: data.MonthlyInstallment,
		EMIsPaidOnTime:     data.EMIsPaidOnTime,
		PaidOnTime:         data.PaidOnTime,
		ApprovalDate:       dateValue(data.ApprovalDate),
		EndDate:            dateValue(data.EndDate),
	}
}

func LoansToEntity(data []Loan) []domain.HistoricalLoan {
	loans := make([]domain.HistoricalLoan, len(data))
	for i, l := range data {
		loans[i] = *LoanToEntity(l)
	}
	return loans
}

// Unknown dates are stored as NULL rather than the zero time.
func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func dateValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

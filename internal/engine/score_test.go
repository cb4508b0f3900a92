package engine

import (
	"testing"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

// loansApprovedIn builds n small loans for customerID approved in year.
func loansApprovedIn(customerID uint64, n int, year int, installment float64) []domain.HistoricalLoan {
	loans := make([]domain.HistoricalLoan, 0, n)
	for i := range n {
		loans = append(loans, domain.HistoricalLoan{
			ID:                 uint64(i + 1),
			CustomerID:         customerID,
			LoanAmount:         10000,
			InterestRate:       10,
			Tenure:             12,
			MonthlyInstallment: installment,
			ApprovalDate:       time.Date(year, time.March, 10, 0, 0, 0, 0, time.UTC),
		})
	}
	return loans
}

func TestScore(t *testing.T) {
	t.Run("No history scores full marks", func(t *testing.T) {
		report := Score(1, nil, asOf)

		assert.Equal(t, 100, report.Score)
		assert.Equal(t, 2026, report.Year)
	})

	t.Run("Up to three loans this year carry no penalty", func(t *testing.T) {
		report := Score(1, loansApprovedIn(1, 3, 2026, 100), asOf)

		assert.Equal(t, 100, report.Score)
		assert.Equal(t, 3, report.CurrentYearLoans)
	})

	t.Run("Each extra loan this year costs ten points", func(t *testing.T) {
		report := Score(1, loansApprovedIn(1, 5, 2026, 100), asOf)

		assert.Equal(t, 80, report.Score)
	})

	t.Run("Loans from other years are not penalized", func(t *testing.T) {
		report := Score(1, loansApprovedIn(1, 8, 2025, 100), asOf)

		assert.Equal(t, 100, report.Score)
		assert.Equal(t, 8, report.TotalLoans)
		assert.Zero(t, report.CurrentYearLoans)
	})

	t.Run("Score is clamped at zero", func(t *testing.T) {
		report := Score(1, loansApprovedIn(1, 20, 2026, 100), asOf)

		assert.Equal(t, 0, report.Score)
	})

	t.Run("Principal above ceiling forces zero regardless of recency", func(t *testing.T) {
		loans := []domain.HistoricalLoan{
			{ID: 1, CustomerID: 1, LoanAmount: 1000000, ApprovalDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 2, CustomerID: 1, LoanAmount: 800001, ApprovalDate: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)},
		}

		report := Score(1, loans, asOf)

		assert.Equal(t, 0, report.Score)
		assert.Equal(t, 1800001.0, report.TotalPrincipal)
	})

	t.Run("Principal exactly at ceiling is allowed", func(t *testing.T) {
		loans := []domain.HistoricalLoan{{ID: 1, CustomerID: 1, LoanAmount: 1800000}}

		assert.Equal(t, 100, Score(1, loans, asOf).Score)
	})

	t.Run("Other customers' loans are ignored", func(t *testing.T) {
		loans := append(loansApprovedIn(2, 10, 2026, 100), loansApprovedIn(1, 4, 2026, 100)...)

		report := Score(1, loans, asOf)

		assert.Equal(t, 90, report.Score)
		assert.Equal(t, 4, report.TotalLoans)
	})

	t.Run("On-time flags are reported but not scored", func(t *testing.T) {
		loans := loansApprovedIn(1, 4, 2026, 100)
		loans[0].PaidOnTime = true
		loans[1].PaidOnTime = true

		report := Score(1, loans, asOf)

		assert.Equal(t, 2, report.OnTimeLoans)
		assert.Equal(t, 90, report.Score)
	})

	t.Run("Score always within bounds", func(t *testing.T) {
		for n := range 30 {
			score := Score(1, loansApprovedIn(1, n, 2026, 100), asOf).Score
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	})
}

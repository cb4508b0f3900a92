package engine

import (
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

const (
	maxScore = 100
	minScore = 0

	// Loans approved in the scoring year beyond this count cost points.
	freeLoansPerYear = 3
	penaltyPerLoan   = 10
	principalCeiling = 36 * 50000
)

// Score computes the credit report for customerID from the loan book
// snapshot. Only the customer's own loans are considered; asOf fixes the
// calendar year used for the recency penalty.
//
// The principal ceiling is evaluated last and forces the score to zero
// regardless of every other adjustment. The on-time count is reported but
// does not move the score.
func Score(customerID uint64, loans []domain.HistoricalLoan, asOf time.Time) domain.CreditReport {
	report := domain.CreditReport{
		CustomerID: customerID,
		Score:      maxScore,
		Year:       asOf.Year(),
	}

	for _, loan := range CustomerLoans(customerID, loans) {
		report.TotalLoans++
		report.TotalPrincipal += loan.LoanAmount
		if loan.PaidOnTime {
			report.OnTimeLoans++
		}
		if !loan.ApprovalDate.IsZero() && loan.ApprovalDate.Year() == report.Year {
			report.CurrentYearLoans++
		}
	}

	if report.CurrentYearLoans > freeLoansPerYear {
		report.Score -= penaltyPerLoan * (report.CurrentYearLoans - freeLoansPerYear)
	}

	if report.TotalPrincipal > principalCeiling {
		report.Score = minScore
	}

	report.Score = max(minScore, min(maxScore, report.Score))
	return report
}

// CustomerLoans returns the subset of loans owned by customerID, in input
// order. The input slice is not modified.
func CustomerLoans(customerID uint64, loans []domain.HistoricalLoan) []domain.HistoricalLoan {
	owned := make([]domain.HistoricalLoan, 0, len(loans))
	for _, loan := range loans {
		if loan.CustomerID == customerID {
			owned = append(owned, loan)
		}
	}
	return owned
}

package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

const (
	// ReasonLowCreditScore rejects applicants scoring 10 or less.
	ReasonLowCreditScore = "Credit score is less than or equal to 10"
	// ReasonEMIOverloaded rejects applicants whose current EMIs exceed half their salary.
	ReasonEMIOverloaded = "Sum of all current EMIs exceeds 50% of monthly salary"

	// Share of monthly salary existing installments may consume.
	maxEMIShare = 0.5
)

// decision is the accumulator the ordered checks write to. A later check may
// overwrite anything an earlier one set.
type decision struct {
	approved bool
	rate     float64
	reason   string
}

type decisionInput struct {
	score         int
	totalEMIs     float64
	monthlySalary float64
}

type decisionCheck func(d *decision, in decisionInput)

// decisionChecks run in order. The debt-to-income check must stay after the
// score tiers so that its reason wins when both reject.
var decisionChecks = []decisionCheck{
	scoreTierCheck,
	debtToIncomeCheck,
}

func scoreTierCheck(d *decision, in decisionInput) {
	switch {
	case in.score > 50:
		d.approved = true
	case in.score > 30:
		d.approved = true
		d.rate = math.Min(d.rate, 12)
	case in.score > 10:
		d.approved = true
		d.rate = math.Min(d.rate, 16)
	default:
		d.approved = false
		d.reason = ReasonLowCreditScore
	}
}

func debtToIncomeCheck(d *decision, in decisionInput) {
	if in.totalEMIs > maxEMIShare*in.monthlySalary {
		d.approved = false
		d.reason = ReasonEMIOverloaded
	}
}

// Decide evaluates a loan application against the customer's loan book.
//
// The installment is computed from the corrected rate even for rejected
// applications, where the corrected rate is zero; callers decide whether to
// surface it.
func Decide(
	application domain.LoanApplication,
	monthlySalary float64,
	loans []domain.HistoricalLoan,
	asOf time.Time,
) (domain.EligibilityResult, error) {
	report := Score(application.CustomerID, loans, asOf)
	return DecideFromReport(application, monthlySalary, report, TotalEMIs(application.CustomerID, loans))
}

// DecideFromReport applies the decision checks to an already computed credit
// report and the sum of the customer's current installments.
func DecideFromReport(
	application domain.LoanApplication,
	monthlySalary float64,
	report domain.CreditReport,
	totalEMIs float64,
) (domain.EligibilityResult, error) {
	if application.LoanAmount <= 0 {
		return domain.EligibilityResult{}, fmt.Errorf("%w: loan amount must be positive for customer %d", ErrValidation, application.CustomerID)
	}
	if err := validateTerms(application.LoanAmount, application.InterestRate, application.Tenure); err != nil {
		return domain.EligibilityResult{}, fmt.Errorf("customer %d: %w", application.CustomerID, err)
	}

	in := decisionInput{
		score:         report.Score,
		totalEMIs:     totalEMIs,
		monthlySalary: monthlySalary,
	}

	d := decision{rate: application.InterestRate}
	for _, check := range decisionChecks {
		check(&d, in)
	}

	if !d.approved {
		d.rate = 0
	}

	installment, err := ComputeInstallment(application.LoanAmount, d.rate, application.Tenure)
	if err != nil {
		return domain.EligibilityResult{}, fmt.Errorf("customer %d: %w", application.CustomerID, err)
	}

	return domain.EligibilityResult{
		CustomerID:            application.CustomerID,
		Approved:              d.approved,
		InterestRate:          application.InterestRate,
		CorrectedInterestRate: d.rate,
		Tenure:                application.Tenure,
		MonthlyInstallment:    installment,
		RejectionReason:       d.reason,
		CreditScore:           report.Score,
	}, nil
}

// TotalEMIs sums the monthly installments of every loan customerID holds.
func TotalEMIs(customerID uint64, loans []domain.HistoricalLoan) float64 {
	var total float64
	for _, loan := range CustomerLoans(customerID, loans) {
		total += loan.MonthlyInstallment
	}
	return total
}

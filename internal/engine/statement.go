package engine

import (
	"fmt"
	"math"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Activate derives the payment state of a loan from its on-time count.
func Activate(loan domain.HistoricalLoan) domain.ActiveLoan {
	remaining := loan.Tenure - loan.EMIsPaidOnTime
	return domain.ActiveLoan{
		HistoricalLoan:        loan,
		RemainingInstallments: remaining,
		RemainingInterest:     residualInterest(loan.LoanAmount, loan.InterestRate, remaining).Round(2).InexactFloat64(),
	}
}

// FindLoan looks up the loan identified by (customerID, loanID).
func FindLoan(customerID, loanID uint64, loans []domain.HistoricalLoan) (domain.HistoricalLoan, error) {
	for _, loan := range loans {
		if loan.CustomerID == customerID && loan.ID == loanID {
			return loan, nil
		}
	}
	return domain.HistoricalLoan{}, fmt.Errorf("%w: loan %d for customer %d", ErrNotFound, loanID, customerID)
}

// GenerateStatement builds the point-in-time statement for the loan
// identified by (customerID, loanID).
func GenerateStatement(customerID, loanID uint64, loans []domain.HistoricalLoan) (domain.Statement, error) {
	loan, err := FindLoan(customerID, loanID, loans)
	if err != nil {
		return domain.Statement{}, err
	}
	return StatementFor(loan)
}

// StatementFor builds the statement of a single loan. Principal remaining
// uses the same residual model as ComputeRemainingBalance with no payment.
func StatementFor(loan domain.HistoricalLoan) (domain.Statement, error) {
	principalRemaining, err := ComputeRemainingBalance(
		loan.LoanAmount, loan.InterestRate,
		loan.Tenure, loan.EMIsPaidOnTime,
		loan.MonthlyInstallment, 0,
	)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("loan %d: %w", loan.ID, err)
	}

	amountPaid := decimal.NewFromFloat(loan.MonthlyInstallment).
		Mul(decimal.NewFromInt(int64(loan.EMIsPaidOnTime))).
		Round(2)

	return domain.Statement{
		CustomerID:         loan.CustomerID,
		LoanID:             loan.ID,
		PrincipalRemaining: principalRemaining,
		InterestRate:       loan.InterestRate,
		AmountPaid:         amountPaid.InexactFloat64(),
		MonthlyInstallment: loan.MonthlyInstallment,
		RepaymentsLeft:     loan.Tenure - loan.EMIsPaidOnTime,
	}, nil
}

// ApplyPayment evaluates amount against the loan's residual balance. The loan
// itself is not modified; a rejected payment has no partial effect.
//
// A balance that lands below one installment is converted to months with
// the compounding annuity (RemainingAnnuityMonths) rather than the
// installment on record. The two formulas do not agree in general.
func ApplyPayment(loan domain.HistoricalLoan, amount float64) (domain.PaymentOutcome, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return domain.PaymentOutcome{}, fmt.Errorf("%w: payment amount must be positive, got %v", ErrValidation, amount)
	}
	if loan.Tenure > 0 && loan.EMIsPaidOnTime >= loan.Tenure {
		return domain.PaymentOutcome{}, fmt.Errorf("%w: loan %d is already cleared", ErrInvalidPayment, loan.ID)
	}

	remaining, err := ComputeRemainingBalance(
		loan.LoanAmount, loan.InterestRate,
		loan.Tenure, loan.EMIsPaidOnTime,
		loan.MonthlyInstallment, amount,
	)
	if err != nil {
		return domain.PaymentOutcome{}, fmt.Errorf("loan %d: %w", loan.ID, err)
	}

	switch {
	case remaining == 0:
		return domain.PaymentOutcome{Kind: domain.OutcomeCleared}, nil
	case remaining < 0:
		return domain.PaymentOutcome{}, fmt.Errorf("%w: amount %.2f exceeds entire loan amount of loan %d", ErrInvalidPayment, amount, loan.ID)
	}

	if pending := PendingInstallments(remaining, loan.MonthlyInstallment); pending > 0 {
		return domain.PaymentOutcome{
			Kind:             domain.OutcomePendingEMIs,
			PendingEMIs:      pending,
			RemainingBalance: remaining,
		}, nil
	}

	months, err := RemainingAnnuityMonths(remaining, loan.LoanAmount, loan.InterestRate, loan.Tenure)
	if err != nil {
		return domain.PaymentOutcome{}, fmt.Errorf("loan %d: %w", loan.ID, err)
	}

	return domain.PaymentOutcome{
		Kind:             domain.OutcomeMonthsRemaining,
		MonthsRemaining:  months,
		RemainingBalance: remaining,
	}, nil
}

// PendingInstallments is the number of whole installments left in remaining.
// A non-positive installment yields zero.
func PendingInstallments(remaining, installment float64) int {
	if installment <= 0 || remaining <= 0 {
		return 0
	}
	return int(math.Floor(remaining / installment))
}

// RemainingAnnuityMonths estimates the months needed to settle remaining
// when paying the compounding annuity of the loan's original terms.
func RemainingAnnuityMonths(remaining, loanAmount, annualRatePercent float64, tenureMonths int) (int, error) {
	emi, err := AnnuityInstallment(loanAmount, annualRatePercent, tenureMonths)
	if err != nil {
		return 0, err
	}
	if emi <= 0 || math.IsNaN(emi) || math.IsInf(emi, 0) {
		return 0, fmt.Errorf("%w: annuity installment for loan amount %.2f is not positive", ErrValidation, loanAmount)
	}
	if remaining <= 0 {
		return 0, nil
	}
	return int(math.Ceil(remaining / emi)), nil
}

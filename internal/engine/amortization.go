// Package engine holds the loan eligibility and amortization rules. Every
// function is a pure computation over explicit inputs: nothing here performs
// I/O, reads the clock, or keeps state between calls.
package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const monthsPerYear = 12

// ComputeInstallment returns the equated monthly installment for a
// reducing-balance loan, rounded half-up to cents:
//
//	r           = annualRatePercent / 100 / 12
//	installment = P * r / (1 - (1+r)^-n)
//
// A zero rate degenerates to an even split P / n.
func ComputeInstallment(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if err := validateTerms(principal, annualRatePercent, tenureMonths); err != nil {
		return 0, err
	}

	n := float64(tenureMonths)
	if annualRatePercent == 0 {
		return roundCents(principal / n), nil
	}

	r := annualRatePercent / 100 / monthsPerYear
	denominator := 1 - math.Pow(1+r, -n)
	if denominator == 0 || math.IsNaN(denominator) {
		return 0, fmt.Errorf("%w: rate %.4f%% over %d months yields a degenerate installment", ErrValidation, annualRatePercent, tenureMonths)
	}

	installment := principal * r / denominator
	if math.IsNaN(installment) || math.IsInf(installment, 0) {
		return 0, fmt.Errorf("%w: installment for principal %.2f is not finite", ErrValidation, principal)
	}

	return roundCents(installment), nil
}

// ComputeRemainingBalance applies paymentAmount against the residual balance
// of a loan. The residual is a simplified, non-compounding model:
//
//	remainingInstallments = tenure - emisPaidOnTime
//	remainingInterest     = loanAmount * rate/100 * remainingInstallments
//	remaining             = remainingInstallments * installment + remainingInterest - payment
//
// The result is rounded to cents and may be negative (overpayment), zero
// (cleared) or positive (still owing).
func ComputeRemainingBalance(
	loanAmount, annualRatePercent float64,
	tenureMonths, emisPaidOnTime int,
	installment, paymentAmount float64,
) (float64, error) {
	if tenureMonths <= 0 {
		return 0, fmt.Errorf("%w: tenure must be positive, got %d", ErrValidation, tenureMonths)
	}
	if emisPaidOnTime < 0 || emisPaidOnTime > tenureMonths {
		return 0, fmt.Errorf("%w: emis paid on time %d outside [0, %d]", ErrValidation, emisPaidOnTime, tenureMonths)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"loan amount", loanAmount},
		{"rate", annualRatePercent},
		{"installment", installment},
		{"payment", paymentAmount},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return 0, fmt.Errorf("%w: %s is not finite", ErrValidation, f.name)
		}
	}

	remainingInstallments := decimal.NewFromInt(int64(tenureMonths - emisPaidOnTime))
	remainingInterest := residualInterest(loanAmount, annualRatePercent, tenureMonths-emisPaidOnTime)

	// The owed balance is settled in whole cents before the payment is taken
	// off, so paying the displayed balance clears the loan exactly.
	owed := remainingInstallments.Mul(decimal.NewFromFloat(installment)).
		Add(remainingInterest).
		Round(2)
	remaining := owed.Sub(decimal.NewFromFloat(paymentAmount)).Round(2)

	return remaining.InexactFloat64(), nil
}

// AnnuityInstallment is the compounding annuity payment
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// left unrounded. It is parameterized independently of ComputeInstallment and
// only feeds RemainingAnnuityMonths.
func AnnuityInstallment(loanAmount, annualRatePercent float64, tenureMonths int) (float64, error) {
	if err := validateTerms(loanAmount, annualRatePercent, tenureMonths); err != nil {
		return 0, err
	}

	n := float64(tenureMonths)
	r := annualRatePercent / monthsPerYear / 100
	if r == 0 {
		return loanAmount / n, nil
	}

	growth := math.Pow(1+r, n)
	return loanAmount * r * growth / (growth - 1), nil
}

// ApprovedLimit derives a customer's credit limit from monthly income,
// rounded to the nearest lakh: round(36 * income / 100000) * 100000.
func ApprovedLimit(monthlyIncome float64) float64 {
	return math.Round(36*monthlyIncome/100000) * 100000
}

func residualInterest(loanAmount, annualRatePercent float64, remainingInstallments int) decimal.Decimal {
	return decimal.NewFromFloat(loanAmount).
		Mul(decimal.NewFromFloat(annualRatePercent)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(remainingInstallments)))
}

func validateTerms(principal, annualRatePercent float64, tenureMonths int) error {
	switch {
	case tenureMonths <= 0:
		return fmt.Errorf("%w: tenure must be positive, got %d", ErrValidation, tenureMonths)
	case math.IsNaN(principal) || math.IsInf(principal, 0) || principal < 0:
		return fmt.Errorf("%w: principal must be a non-negative amount, got %v", ErrValidation, principal)
	case math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) || annualRatePercent < 0:
		return fmt.Errorf("%w: interest rate must be a non-negative percentage, got %v", ErrValidation, annualRatePercent)
	}
	return nil
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	AdminRole    Role = "admin"
	OperatorRole Role = "operator"
)

type Customer struct {
	ID            uint64
	FirstName     string
	LastName      string
	Age           int
	MonthlyIncome float64
	ApprovedLimit float64
	PhoneNumber   string
	CreatedAt     time.Time
}

// Name returns the customer's display name.
func (c Customer) Name() string {
	return c.FirstName + " " + c.LastName
}

// HistoricalLoan is a loan record as sourced from the loan book. The engine
// only ever reads it.
type HistoricalLoan struct {
	ID                 uint64
	CustomerID         uint64
	LoanAmount         float64
	InterestRate       float64
	Tenure             int
	MonthlyInstallment float64
	// EMIsPaidOnTime counts installments settled on schedule. It drives the
	// residual balance but is not a scoring input.
	EMIsPaidOnTime int
	PaidOnTime     bool
	ApprovalDate   time.Time
	EndDate        time.Time
}

type LoanApplication struct {
	CustomerID   uint64
	LoanAmount   float64
	InterestRate float64
	Tenure       int
}

type EligibilityResult struct {
	CustomerID            uint64
	Approved              bool
	InterestRate          float64
	CorrectedInterestRate float64
	Tenure                int
	MonthlyInstallment    float64
	RejectionReason       string
	CreditScore           int
}

type CreditReport struct {
	CustomerID       uint64
	Score            int
	TotalLoans       int
	CurrentYearLoans int
	TotalPrincipal   float64
	OnTimeLoans      int
	Year             int
}

type ActiveLoan struct {
	HistoricalLoan
	RemainingInstallments int
	RemainingInterest     float64
}

type Statement struct {
	CustomerID         uint64
	LoanID             uint64
	PrincipalRemaining float64
	InterestRate       float64
	AmountPaid         float64
	MonthlyInstallment float64
	RepaymentsLeft     int
}

type PaymentOutcomeKind string

const (
	OutcomeCleared         PaymentOutcomeKind = "cleared"
	OutcomePendingEMIs     PaymentOutcomeKind = "pending_emis"
	OutcomeMonthsRemaining PaymentOutcomeKind = "months_remaining"
)

type PaymentOutcome struct {
	Kind             PaymentOutcomeKind
	PendingEMIs      int
	MonthsRemaining  int
	RemainingBalance float64
}

type Payment struct {
	ID               uint64
	Reference        string
	LoanID           uint64
	CustomerID       uint64
	Amount           float64
	Outcome          PaymentOutcomeKind
	RemainingBalance float64
	CreatedAt        time.Time
}

type LoanCreation struct {
	LoanID             *uint64
	CustomerID         uint64
	Approved           bool
	Message            string
	MonthlyInstallment float64
}

type LoanView struct {
	Loan     HistoricalLoan
	Customer *Customer
}

type PaymentReceipt struct {
	Payment Payment
	Loan    HistoricalLoan
	Message string
}

type ImportSummary struct {
	Customers int
	Loans     int
}

type JwtCustomClaims struct {
	Subject string `json:"sub_name"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

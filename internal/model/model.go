package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents the customers table
type Customer struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName     string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName      string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Age           int       `gorm:"not null" json:"age"`
	PhoneNumber   string    `gorm:"type:varchar(20);not null;index" json:"phone_number"`
	MonthlyIncome float64   `gorm:"type:decimal(15,2);not null" json:"monthly_income"`
	ApprovedLimit float64   `gorm:"type:decimal(15,2);not null" json:"approved_limit"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Loans []Loan `gorm:"foreignKey:CustomerID" json:"loans,omitempty"`
}

// Loan represents the loans table
type Loan struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID         uint64     `gorm:"not null;index" json:"customer_id"`
	LoanAmount         float64    `gorm:"type:decimal(15,2);not null" json:"loan_amount"`
	InterestRate       float64    `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	Tenure             int        `gorm:"not null" json:"tenure"`
	MonthlyInstallment float64    `gorm:"type:decimal(15,2);not null" json:"monthly_installment"`
	EMIsPaidOnTime     int        `gorm:"column:emis_paid_on_time;not null;default:0" json:"emis_paid_on_time"`
	PaidOnTime         bool       `gorm:"not null;default:false" json:"paid_on_time"`
	ApprovalDate       *time.Time `gorm:"type:date" json:"approval_date"`
	EndDate            *time.Time `gorm:"type:date" json:"end_date"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Customer Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"-"`
	Payments []Payment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// PaymentOutcome enum for accepted payments
type PaymentOutcome string

const (
	PaymentCleared         PaymentOutcome = "CLEARED"
	PaymentPendingEMIs     PaymentOutcome = "PENDING_EMIS"
	PaymentMonthsRemaining PaymentOutcome = "MONTHS_REMAINING"
)

// Payment represents the payments table
type Payment struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference        string         `gorm:"type:char(36);not null;uniqueIndex" json:"reference"`
	LoanID           uint64         `gorm:"not null;index" json:"loan_id"`
	CustomerID       uint64         `gorm:"not null;index" json:"customer_id"`
	Amount           float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	Outcome          PaymentOutcome `gorm:"type:varchar(20);not null" json:"outcome"`
	RemainingBalance float64        `gorm:"type:decimal(15,2);not null" json:"remaining_balance"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`

	Loan Loan `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Customer) TableName() string { return "customers" }
func (Loan) TableName() string     { return "loans" }
func (Payment) TableName() string  { return "payments" }

// Migrate creates or updates the schema for every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Customer{}, &Loan{}, &Payment{})
}

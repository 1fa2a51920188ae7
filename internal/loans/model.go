package loans

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus enumerates loan lifecycle values.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
)

// InstallmentKind distinguishes the two repayment components subject to
// the one-per-calendar-month rule.
type InstallmentKind string

const (
	InstallmentPrincipal InstallmentKind = "PRINCIPAL"
	InstallmentInterest  InstallmentKind = "INTEREST"
)

// Loan tracks a borrowed amount and its repayment schedule. InterestRate
// is the annual rate as a decimal fraction (0.12 for 12%).
type Loan struct {
	ID                 int64
	CompanyID          int64
	Reference          string
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal
	TermMonths         int
	MonthlyRepayment   decimal.Decimal
	OutstandingBalance decimal.Decimal
	Status             LoanStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ShortTerm reports whether the loan classifies as a short-term
// liability (term of a year or less).
func (l Loan) ShortTerm() bool {
	return l.TermMonths <= 12
}

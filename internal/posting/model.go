package posting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates transaction lifecycle values. Transactions are never
// physically deleted; unreconcile reverts posted back to pending and
// strips the entries.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPosted   Status = "posted"
)

// Transaction is the posting header. TotalAmount always equals the sum
// of the transaction's entry debits (equivalently credits); for split
// postings that is the cash-moved total recomputed from the lines.
type Transaction struct {
	ID            int64
	CompanyID     int64
	PostingUID    uuid.UUID
	Element       Element
	Date          time.Time
	Description   string
	Reference     string
	PaymentMethod PaymentMethod
	BankAccountID *int64
	TotalAmount   decimal.Decimal
	BaseAmount    decimal.Decimal
	VATAmount     decimal.Decimal
	VATRate       decimal.Decimal
	VATInclusive  bool
	LoanID        *int64
	AssetID       *int64
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentMethod declares how money moves for the transaction.
type PaymentMethod string

const (
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
)

// EntryInput is one computed leg before persistence. Exactly one of
// Debit/Credit is non-zero and both are non-negative.
type EntryInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Entry is a persisted transaction line.
type Entry struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Description   string
	Status        Status
	CreatedAt     time.Time
}

// LedgerEntry mirrors an Entry scoped by company and dated by entry
// date for period reporting. Always regenerated with its entries.
type LedgerEntry struct {
	ID            int64
	CompanyID     int64
	TransactionID int64
	AccountID     int64
	EntryDate     time.Time
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	CreatedAt     time.Time
}

// SumDebits totals the debit side of a computed entry set.
func SumDebits(entries []EntryInput) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Debit)
	}
	return sum
}

// SumCredits totals the credit side of a computed entry set.
func SumCredits(entries []EntryInput) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Credit)
	}
	return sum
}

// Balanced reports whether debits equal credits to the cent.
func Balanced(entries []EntryInput) bool {
	return SumDebits(entries).Round(2).Equal(SumCredits(entries).Round(2))
}

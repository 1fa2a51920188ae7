package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates which way a balance adjustment moves money.
type Direction string

const (
	DirectionDeposit  Direction = "DEPOSIT"
	DirectionWithdraw Direction = "WITHDRAW"
)

// BankAccount models a tracked bank account. Balance is only ever moved
// through serialized increments, never read-then-write.
type BankAccount struct {
	ID            int64
	CompanyID     int64
	Name          string
	LedgerCode    string
	AccountNumber string
	Balance       decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

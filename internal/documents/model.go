package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType distinguishes stocked product lines from service lines.
type ItemType string

const (
	ItemTypeProduct ItemType = "PRODUCT"
	ItemTypeService ItemType = "SERVICE"
)

// Invoice is an upstream sales document that locks a posting's accounts.
type Invoice struct {
	ID           int64
	CompanyID    int64
	Number       string
	CustomerName string
	IssuedAt     time.Time
	Total        decimal.Decimal
	Lines        []InvoiceLine
}

// InvoiceLine carries the per-item data the locked-flow resolver needs.
// ProductCost is nil when the linked product has no recorded cost.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	ItemType    ItemType
	ProductCost *decimal.Decimal
}

// PurchaseOrder is an upstream procurement document. LoanFunded switches
// the credit side from accounts payable to the loan liability.
type PurchaseOrder struct {
	ID           int64
	CompanyID    int64
	Number       string
	SupplierName string
	LoanFunded   bool
	LoanID       *int64
	SentAt       time.Time
	Total        decimal.Decimal
	Lines        []PurchaseOrderLine
}

// PurchaseOrderLine is one ordered item.
type PurchaseOrderLine struct {
	ID              int64
	PurchaseOrderID int64
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	ItemType        ItemType
}

package posting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind names the upstream document class behind a locked flow.
type SourceKind string

const (
	SourceInvoiceIssued     SourceKind = "invoice_issued"
	SourceInvoicePaid       SourceKind = "invoice_paid"
	SourcePurchaseOrderSent SourceKind = "purchase_order_sent"
)

// SourceRef points at the originating document of a locked flow.
type SourceRef struct {
	Kind       SourceKind
	DocumentID int64
}

// SplitLine is one sub-line of a split transaction.
type SplitLine struct {
	AccountID   int64
	Amount      decimal.Decimal
	VATRate     decimal.Decimal
	Description string
}

// Input carries everything the orchestrator needs to compute and write
// one transaction. The same shape serves create and edit.
type Input struct {
	CompanyID   int64
	Element     Element
	Date        time.Time
	Description string
	Reference   string

	Amount       decimal.Decimal
	VATRate      decimal.Decimal
	VATInclusive bool

	PaymentMethod   PaymentMethod
	BankAccountID   *int64
	DebitAccountID  int64
	CreditAccountID int64

	SplitLines []SplitLine

	// Loan selectors; LoanReference with rate and term opens a new loan
	// on loan_received when LoanID is nil.
	LoanID         *int64
	LoanReference  string
	LoanAnnualRate decimal.Decimal
	LoanTermMonths int

	// Asset selectors; description and useful life register a new asset
	// on asset_purchase, AssetID targets depreciation and disposal.
	AssetID              *int64
	AssetDescription     string
	AssetUsefulLifeYears int

	Source  *SourceRef
	ActorID int64
}

// Validate enforces the field-level rules that need no collaborator
// lookups. Cross-entity checks (bank ledger, locked accounts, loan
// periods) belong to the orchestrator's Validating state.
func (in Input) Validate() error {
	if in.CompanyID == 0 {
		return fmt.Errorf("%w: company", ErrMissingField)
	}
	if _, err := ParseElement(string(in.Element)); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date", ErrMissingField)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	if in.Amount.Sign() <= 0 && in.Element != ElementAssetDisposal {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.Amount.Sign() < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	if in.VATRate.Sign() < 0 {
		return fmt.Errorf("%w: vat rate must not be negative", ErrValidation)
	}
	switch in.PaymentMethod {
	case PaymentMethodBank, PaymentMethodCash, PaymentMethodCredit:
	case "":
		return fmt.Errorf("%w: payment method", ErrMissingField)
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	if in.PaymentMethod == PaymentMethodBank && in.BankAccountID == nil {
		return fmt.Errorf("%w: bank account", ErrMissingField)
	}
	for idx, line := range in.SplitLines {
		if line.AccountID == 0 {
			return fmt.Errorf("%w (line %d)", ErrSplitLineAccount, idx+1)
		}
		if line.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: split line %d amount must be positive", ErrValidation, idx+1)
		}
		if line.VATRate.Sign() < 0 {
			return fmt.Errorf("%w: split line %d vat rate must not be negative", ErrValidation, idx+1)
		}
	}
	switch in.Element {
	case ElementLoanReceived:
		if in.LoanID == nil && in.LoanReference == "" {
			return fmt.Errorf("%w: loan reference", ErrMissingField)
		}
		if in.LoanID == nil && in.LoanTermMonths <= 0 {
			return fmt.Errorf("%w: loan term months must be positive", ErrValidation)
		}
	case ElementLoanRepayment, ElementLoanInterest:
		if in.LoanID == nil {
			return fmt.Errorf("%w: loan", ErrMissingField)
		}
	case ElementAssetPurchase:
		if in.AssetDescription == "" {
			return fmt.Errorf("%w: asset description", ErrMissingField)
		}
		if in.AssetUsefulLifeYears <= 0 {
			return fmt.Errorf("%w: asset useful life years must be positive", ErrValidation)
		}
	case ElementDepreciation, ElementAssetDisposal:
		if in.AssetID == nil {
			return fmt.Errorf("%w: asset", ErrMissingField)
		}
	case ElementExpense, ElementIncome, ElementReceipt, ElementProductPurchase,
		ElementLiabilityPayment, ElementEquityContribution:
	}
	if in.Source != nil {
		switch in.Source.Kind {
		case SourceInvoiceIssued, SourceInvoicePaid, SourcePurchaseOrderSent:
		default:
			return fmt.Errorf("%w: unknown source kind %q", ErrValidation, in.Source.Kind)
		}
		if in.Source.DocumentID == 0 {
			return fmt.Errorf("%w: source document", ErrMissingField)
		}
	}
	return nil
}

// EffectiveVATRate applies the domain rule that VAT-exempt elements
// always post at rate zero, regardless of caller input.
func (in Input) EffectiveVATRate() decimal.Decimal {
	if in.Element.VATExempt() {
		return decimal.Zero
	}
	return in.VATRate
}

// Result is returned by a successful post.
type Result struct {
	TransactionID    int64
	DuplicateWarning bool
}

package posting

import (
	"fmt"

	"github.com/ledgerline/ledgerline/internal/accounts"
)

// Element is the business archetype of a transaction. It is a closed
// enumeration: every switch over it in this package lists all variants,
// so adding an element forces each handler to take a position.
type Element string

const (
	ElementExpense            Element = "expense"
	ElementIncome             Element = "income"
	ElementReceipt            Element = "receipt"
	ElementAssetPurchase      Element = "asset_purchase"
	ElementProductPurchase    Element = "product_purchase"
	ElementLiabilityPayment   Element = "liability_payment"
	ElementEquityContribution Element = "equity_contribution"
	ElementLoanReceived       Element = "loan_received"
	ElementLoanRepayment      Element = "loan_repayment"
	ElementLoanInterest       Element = "loan_interest"
	ElementDepreciation       Element = "depreciation"
	ElementAssetDisposal      Element = "asset_disposal"
)

// Elements lists every variant, in display order.
var Elements = []Element{
	ElementExpense,
	ElementIncome,
	ElementReceipt,
	ElementAssetPurchase,
	ElementProductPurchase,
	ElementLiabilityPayment,
	ElementEquityContribution,
	ElementLoanReceived,
	ElementLoanRepayment,
	ElementLoanInterest,
	ElementDepreciation,
	ElementAssetDisposal,
}

// ParseElement validates a wire value.
func ParseElement(s string) (Element, error) {
	for _, e := range Elements {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: unknown element %q", ErrValidation, s)
}

// DebitType is the account type required on the debit side.
func (e Element) DebitType() accounts.AccountType {
	switch e {
	case ElementExpense, ElementLoanInterest, ElementDepreciation:
		return accounts.AccountTypeExpense
	case ElementIncome, ElementReceipt, ElementAssetPurchase, ElementProductPurchase,
		ElementEquityContribution, ElementLoanReceived, ElementAssetDisposal:
		return accounts.AccountTypeAsset
	case ElementLiabilityPayment, ElementLoanRepayment:
		return accounts.AccountTypeLiability
	}
	return ""
}

// CreditTypes is the set of account types admissible on the credit side.
func (e Element) CreditTypes() []accounts.AccountType {
	switch e {
	case ElementExpense, ElementAssetPurchase, ElementProductPurchase:
		return []accounts.AccountType{accounts.AccountTypeAsset, accounts.AccountTypeLiability}
	case ElementIncome:
		return []accounts.AccountType{accounts.AccountTypeIncome}
	case ElementReceipt:
		return []accounts.AccountType{accounts.AccountTypeAsset, accounts.AccountTypeIncome}
	case ElementLiabilityPayment, ElementLoanRepayment, ElementLoanInterest:
		return []accounts.AccountType{accounts.AccountTypeAsset}
	case ElementEquityContribution:
		return []accounts.AccountType{accounts.AccountTypeEquity}
	case ElementLoanReceived:
		return []accounts.AccountType{accounts.AccountTypeLiability}
	case ElementDepreciation, ElementAssetDisposal:
		return []accounts.AccountType{accounts.AccountTypeAsset}
	}
	return nil
}

// VATExempt reports whether the element forces a zero VAT rate. This is
// a domain rule, not a UI default: loans, depreciation and disposals
// never carry VAT regardless of caller input.
func (e Element) VATExempt() bool {
	switch e {
	case ElementLoanReceived, ElementLoanRepayment, ElementLoanInterest,
		ElementDepreciation, ElementAssetDisposal:
		return true
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution:
		return false
	}
	return false
}

// SplitSide names which side, if any, a split transaction distributes.
type SplitSide int

const (
	SplitNone SplitSide = iota
	SplitDebit
	SplitCredit
)

// SplitSide returns the side split lines occupy for the element.
// Expense-like elements split the debit side, income-like the credit side.
func (e Element) SplitSide() SplitSide {
	switch e {
	case ElementExpense, ElementAssetPurchase, ElementProductPurchase:
		return SplitDebit
	case ElementIncome, ElementReceipt:
		return SplitCredit
	case ElementLiabilityPayment, ElementEquityContribution, ElementLoanReceived,
		ElementLoanRepayment, ElementLoanInterest, ElementDepreciation, ElementAssetDisposal:
		return SplitNone
	}
	return SplitNone
}

// BankOnDebitSide reports whether the cash/bank leg of the element sits
// on the debit side (money coming in) rather than the credit side.
func (e Element) BankOnDebitSide() bool {
	switch e {
	case ElementIncome, ElementReceipt, ElementEquityContribution,
		ElementLoanReceived, ElementAssetDisposal:
		return true
	case ElementExpense, ElementAssetPurchase, ElementProductPurchase,
		ElementLiabilityPayment, ElementLoanRepayment, ElementLoanInterest,
		ElementDepreciation:
		return false
	}
	return false
}

// MovesBankBalance reports whether the element touches a bank account at
// all; depreciation is the only pure book entry.
func (e Element) MovesBankBalance() bool {
	return e != ElementDepreciation
}

package accounts

// Canonical ledger codes the engine relies on. The bank code doubles as
// the classifier's default cash selection.
const (
	CodeBank              = "1000"
	CodeReceivable        = "1100"
	CodeInventory         = "1200"
	CodeVATInput          = "1500"
	CodeAccumDepreciation = "1900"
	CodePayable           = "2100"
	CodeLoanShortTerm     = "2200"
	CodeVATOutput         = "2300"
	CodeLoanLongTerm      = "2700"
	CodeSalesRevenue      = "4000"
	CodeGainOnDisposal    = "4900"
	CodeCOGS              = "5100"
	CodeDeprExpense       = "6500"
	CodeLossOnDisposal    = "6900"
)

// WellKnownSpec describes a ledger the engine may create when absent.
type WellKnownSpec struct {
	Code string
	Name string
	Type AccountType
}

// Well-known ledgers subject to lazy creation (missing VAT, COGS,
// inventory or disposal accounts self-heal once per posting attempt).
var (
	SpecBank              = WellKnownSpec{CodeBank, "Bank", AccountTypeAsset}
	SpecReceivable        = WellKnownSpec{CodeReceivable, "Accounts Receivable", AccountTypeAsset}
	SpecInventory         = WellKnownSpec{CodeInventory, "Inventory", AccountTypeAsset}
	SpecVATInput          = WellKnownSpec{CodeVATInput, "VAT Input", AccountTypeAsset}
	SpecAccumDepreciation = WellKnownSpec{CodeAccumDepreciation, "Accumulated Depreciation", AccountTypeAsset}
	SpecPayable           = WellKnownSpec{CodePayable, "Accounts Payable", AccountTypeLiability}
	SpecLoanShortTerm     = WellKnownSpec{CodeLoanShortTerm, "Short-term Loan", AccountTypeLiability}
	SpecVATOutput         = WellKnownSpec{CodeVATOutput, "VAT Output", AccountTypeLiability}
	SpecLoanLongTerm      = WellKnownSpec{CodeLoanLongTerm, "Long-term Loan", AccountTypeLiability}
	SpecSalesRevenue      = WellKnownSpec{CodeSalesRevenue, "Sales Revenue", AccountTypeIncome}
	SpecGainOnDisposal    = WellKnownSpec{CodeGainOnDisposal, "Gain on Disposal", AccountTypeIncome}
	SpecCOGS              = WellKnownSpec{CodeCOGS, "Cost of Goods Sold", AccountTypeExpense}
	SpecDeprExpense       = WellKnownSpec{CodeDeprExpense, "Depreciation Expense", AccountTypeExpense}
	SpecLossOnDisposal    = WellKnownSpec{CodeLossOnDisposal, "Loss on Disposal", AccountTypeExpense}
)

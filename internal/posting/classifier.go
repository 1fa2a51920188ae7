package posting

import (
	"strings"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/loans"
)

// Candidates is the classifier output: the admissible account sets per
// side plus any default auto-selection. Empty sides never error here;
// blocking on an empty required side is the orchestrator's job.
type Candidates struct {
	Debit        []accounts.Account
	Credit       []accounts.Account
	AutoDebitID  int64
	AutoCreditID int64
}

// fixedAssetKeywords narrow the debit side of asset purchases to ledgers
// with physical-asset semantics.
var fixedAssetKeywords = []string{
	"land", "building", "plant", "vehicle", "equipment", "software", "goodwill",
}

// contraKeywords exclude accumulated-depreciation style contra accounts
// from the asset-purchase debit set.
var contraKeywords = []string{"accumulated", "depreciation"}

func nameMatchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isFixedAssetLedger(a accounts.Account) bool {
	return nameMatchesAny(a.Name, fixedAssetKeywords) && !nameMatchesAny(a.Name, contraKeywords)
}

func isInventoryLedger(a accounts.Account) bool {
	return strings.HasPrefix(a.Code, "12") ||
		nameMatchesAny(a.Name, []string{"inventory", "stock"})
}

// Classify computes the admissible debit and credit sets for the element
// against the chart. chosenDebit/chosenCredit exclude self-pairing: an
// account picked on one side disappears from the other. loan refines the
// liability auto-selection by term classification.
func Classify(element Element, chart []accounts.Account, chosenDebitID, chosenCreditID int64, loan *loans.Loan) Candidates {
	var out Candidates
	debitType := element.DebitType()
	creditTypes := element.CreditTypes()

	for _, a := range chart {
		if !a.IsActive {
			continue
		}
		if a.Type == debitType && a.ID != chosenCreditID && debitAdmissible(element, a) {
			out.Debit = append(out.Debit, a)
		}
		for _, ct := range creditTypes {
			if a.Type == ct && a.ID != chosenDebitID {
				out.Credit = append(out.Credit, a)
				break
			}
		}
	}

	out.AutoDebitID, out.AutoCreditID = autoSelect(element, out, loan)
	return out
}

func debitAdmissible(element Element, a accounts.Account) bool {
	switch element {
	case ElementAssetPurchase:
		return isFixedAssetLedger(a)
	case ElementProductPurchase:
		return isInventoryLedger(a)
	case ElementExpense, ElementIncome, ElementReceipt, ElementLiabilityPayment,
		ElementEquityContribution, ElementLoanReceived, ElementLoanRepayment,
		ElementLoanInterest, ElementDepreciation, ElementAssetDisposal:
		return true
	}
	return true
}

// autoSelect prefers the canonical bank ledger for the non-expense,
// non-income side and the term-matched loan liability for loan elements.
func autoSelect(element Element, candidates Candidates, loan *loans.Loan) (debitID, creditID int64) {
	findByCode := func(set []accounts.Account, code string) int64 {
		for _, a := range set {
			if a.Code == code {
				return a.ID
			}
		}
		return 0
	}

	if element.BankOnDebitSide() {
		debitID = findByCode(candidates.Debit, accounts.CodeBank)
	} else if element != ElementDepreciation {
		creditID = findByCode(candidates.Credit, accounts.CodeBank)
	}

	loanCode := accounts.CodeLoanLongTerm
	if loan != nil && loan.ShortTerm() {
		loanCode = accounts.CodeLoanShortTerm
	}
	switch element {
	case ElementLoanReceived:
		creditID = findByCode(candidates.Credit, loanCode)
	case ElementLoanRepayment:
		debitID = findByCode(candidates.Debit, loanCode)
	case ElementDepreciation:
		debitID = findByCode(candidates.Debit, accounts.CodeDeprExpense)
		creditID = findByCode(candidates.Credit, accounts.CodeAccumDepreciation)
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
		ElementLoanInterest, ElementAssetDisposal:
	}
	return debitID, creditID
}

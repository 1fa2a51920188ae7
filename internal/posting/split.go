package posting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/money"
)

// Allocation is the balanced entry set produced from split lines. The
// single source leg carries CashTotal, the true cash-moved amount
// recomputed from the lines rather than echoed from the caller's form.
type Allocation struct {
	Entries   []EntryInput
	CashTotal decimal.Decimal
	BaseTotal decimal.Decimal
	VATTotal  decimal.Decimal
}

// Allocate distributes a transaction across its split lines and
// reconciles them against one opposite-side source leg. Lines occupy the
// side the element dictates; VAT per side is aggregated into one leg.
func Allocate(element Element, declaredTotal decimal.Decimal, lines []SplitLine, inclusive bool, sourceAccountID, vatAccountID int64) (Allocation, error) {
	side := element.SplitSide()
	if side == SplitNone {
		return Allocation{}, fmt.Errorf("%w: element %s does not support split lines", ErrValidation, element)
	}
	if len(lines) == 0 {
		return Allocation{}, fmt.Errorf("%w: split lines", ErrMissingField)
	}
	if sourceAccountID == 0 {
		return Allocation{}, fmt.Errorf("%w: source account", ErrMissingField)
	}

	declared := decimal.Zero
	for idx, line := range lines {
		if line.AccountID == 0 {
			return Allocation{}, fmt.Errorf("%w (line %d)", ErrSplitLineAccount, idx+1)
		}
		declared = declared.Add(line.Amount)
	}
	if !money.WithinTolerance(declared, declaredTotal) {
		return Allocation{}, fmt.Errorf("%w: lines sum to %s, declared %s",
			ErrUnbalancedSplit, declared.StringFixed(2), declaredTotal.StringFixed(2))
	}

	alloc := Allocation{BaseTotal: decimal.Zero, VATTotal: decimal.Zero}
	for _, line := range lines {
		net, vat := money.Split(line.Amount, line.VATRate, inclusive)
		alloc.BaseTotal = alloc.BaseTotal.Add(net)
		alloc.VATTotal = alloc.VATTotal.Add(vat)
		alloc.Entries = append(alloc.Entries, sideEntry(side, line.AccountID, net, line.Description))
	}
	if alloc.VATTotal.Sign() > 0 {
		if vatAccountID == 0 {
			return Allocation{}, fmt.Errorf("%w: vat account", ErrMissingField)
		}
		alloc.Entries = append(alloc.Entries, sideEntry(side, vatAccountID, alloc.VATTotal, "VAT"))
	}

	alloc.CashTotal = alloc.BaseTotal.Add(alloc.VATTotal)
	alloc.Entries = append(alloc.Entries, oppositeEntry(side, sourceAccountID, alloc.CashTotal, ""))
	return alloc, nil
}

func sideEntry(side SplitSide, accountID int64, amount decimal.Decimal, description string) EntryInput {
	if side == SplitDebit {
		return EntryInput{AccountID: accountID, Debit: amount, Description: description}
	}
	return EntryInput{AccountID: accountID, Credit: amount, Description: description}
}

func oppositeEntry(side SplitSide, accountID int64, amount decimal.Decimal, description string) EntryInput {
	if side == SplitDebit {
		return EntryInput{AccountID: accountID, Credit: amount, Description: description}
	}
	return EntryInput{AccountID: accountID, Debit: amount, Description: description}
}

package posting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/money"
)

// BuildContext is the fully resolved picture the builder works from:
// final account choices after classification and locked-flow pinning,
// plus the loan or asset record the element operates on.
type BuildContext struct {
	Input           Input
	DebitAccountID  int64
	CreditAccountID int64

	// VATAccountID is the ledger for the element's VAT leg: VAT input
	// for outgoing money, VAT output for incoming. Zero means no VAT
	// ledger resolved; that only errors when a VAT amount arises.
	VATAccountID int64

	Loan  *loans.Loan
	Asset *assets.FixedAsset
	Flow  *LockedFlow

	// LoanCreated marks a loan opened by this very posting; its opening
	// balance already equals the principal, so no delta is applied.
	LoanCreated bool

	// Disposal ledgers, resolved only for asset_disposal.
	AccumDeprAccountID int64
	GainAccountID      int64
	LossAccountID      int64
}

// BankEffect is a signed balance adjustment against a bank account.
type BankEffect struct {
	BankAccountID int64
	Delta         decimal.Decimal
}

// LoanEffect adjusts a loan's outstanding principal. Negative for
// repayments, positive when a repayment is reversed.
type LoanEffect struct {
	LoanID         int64
	PrincipalDelta decimal.Decimal
}

// AssetEffect adjusts accumulated depreciation and, for disposals,
// flips the asset's status.
type AssetEffect struct {
	AssetID          int64
	AccumulatedDelta decimal.Decimal
	Dispose          bool
}

// Draft is a computed but unpersisted posting: the balanced entry set,
// the header amounts, and the balance side effects the writer must apply
// in the same database transaction.
type Draft struct {
	Entries []EntryInput
	Total   decimal.Decimal
	Base    decimal.Decimal
	VAT     decimal.Decimal
	VATRate decimal.Decimal

	Bank  *BankEffect
	Loan  *LoanEffect
	Asset *AssetEffect
}

// Build turns a resolved context into a balanced draft. It never writes;
// the orchestrator persists the draft atomically.
func Build(bc BuildContext) (Draft, error) {
	in := bc.Input
	rate := in.EffectiveVATRate()

	var (
		draft Draft
		err   error
	)
	switch {
	case bc.Flow != nil:
		draft, err = buildLocked(bc)
	case len(in.SplitLines) > 0 && in.Element.SplitSide() != SplitNone:
		draft, err = buildSplit(bc)
	default:
		draft, err = buildByElement(bc, rate)
	}
	if err != nil {
		return Draft{}, err
	}
	draft.VATRate = rate

	if !Balanced(draft.Entries) {
		return Draft{}, fmt.Errorf("%w: debit %s, credit %s", ErrUnbalancedEntries,
			SumDebits(draft.Entries).StringFixed(2), SumCredits(draft.Entries).StringFixed(2))
	}
	draft.Total = SumDebits(draft.Entries).Round(2)

	if draft.Bank == nil {
		draft.Bank = bankEffect(in, draft.Total)
	}
	return draft, nil
}

// buildLocked posts the document total against the pinned accounts and
// appends the resolver's companion legs. Upstream documents carry their
// own VAT accounting, so the total posts as one gross movement.
func buildLocked(bc BuildContext) (Draft, error) {
	flow := bc.Flow
	amount := flow.DocumentTotal
	if amount.Sign() <= 0 {
		amount = bc.Input.Amount
	}
	entries := []EntryInput{
		{AccountID: flow.DebitAccountID, Debit: amount, Description: flow.DocumentNumber},
		{AccountID: flow.CreditAccountID, Credit: amount, Description: flow.DocumentNumber},
	}
	entries = append(entries, flow.ExtraLegs...)
	return Draft{Entries: entries, Base: amount, VAT: decimal.Zero}, nil
}

func buildSplit(bc BuildContext) (Draft, error) {
	in := bc.Input
	sourceID := bc.CreditAccountID
	if in.Element.SplitSide() == SplitCredit {
		sourceID = bc.DebitAccountID
	}
	alloc, err := Allocate(in.Element, in.Amount, in.SplitLines, in.VATInclusive, sourceID, bc.VATAccountID)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Entries: alloc.Entries, Base: alloc.BaseTotal, VAT: alloc.VATTotal}, nil
}

func buildByElement(bc BuildContext, rate decimal.Decimal) (Draft, error) {
	in := bc.Input
	switch in.Element {
	case ElementDepreciation:
		return buildDepreciation(bc)
	case ElementAssetDisposal:
		return buildDisposal(bc)
	case ElementLoanRepayment:
		draft, err := buildStandard(bc, rate)
		if err != nil {
			return Draft{}, err
		}
		draft.Loan = &LoanEffect{LoanID: bc.Loan.ID, PrincipalDelta: draft.Base.Neg()}
		return draft, nil
	case ElementLoanReceived:
		draft, err := buildStandard(bc, rate)
		if err != nil {
			return Draft{}, err
		}
		if !bc.LoanCreated {
			draft.Loan = &LoanEffect{LoanID: bc.Loan.ID, PrincipalDelta: draft.Base}
		}
		return draft, nil
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
		ElementLoanInterest:
		return buildStandard(bc, rate)
	}
	return Draft{}, fmt.Errorf("%w: unknown element %q", ErrValidation, in.Element)
}

// buildStandard produces the two-or-three-leg entry set every plain
// element shares: principal legs on both sides, with the VAT leg joining
// the side money is spent toward.
func buildStandard(bc BuildContext, rate decimal.Decimal) (Draft, error) {
	in := bc.Input
	if bc.DebitAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: debit account", ErrMissingField)
	}
	if bc.CreditAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: credit account", ErrMissingField)
	}
	if bc.DebitAccountID == bc.CreditAccountID {
		return Draft{}, ErrSameAccount
	}

	net, vat := money.Split(in.Amount, rate, in.VATInclusive)
	gross := money.Total(net, vat)
	if vat.Sign() > 0 && bc.VATAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: vat account", ErrMissingField)
	}

	var entries []EntryInput
	if in.Element.BankOnDebitSide() {
		// Money in: gross hits the debit side, VAT output credits.
		entries = append(entries, EntryInput{AccountID: bc.DebitAccountID, Debit: gross})
		entries = append(entries, EntryInput{AccountID: bc.CreditAccountID, Credit: net})
		if vat.Sign() > 0 {
			entries = append(entries, EntryInput{AccountID: bc.VATAccountID, Credit: vat, Description: "VAT"})
		}
	} else {
		entries = append(entries, EntryInput{AccountID: bc.DebitAccountID, Debit: net})
		if vat.Sign() > 0 {
			entries = append(entries, EntryInput{AccountID: bc.VATAccountID, Debit: vat, Description: "VAT"})
		}
		entries = append(entries, EntryInput{AccountID: bc.CreditAccountID, Credit: gross})
	}
	return Draft{Entries: entries, Base: net, VAT: vat}, nil
}

// buildDepreciation posts the capped straight-line charge. The charge is
// derived from the asset record, never from caller input.
func buildDepreciation(bc BuildContext) (Draft, error) {
	asset := bc.Asset
	charge := assets.DepreciationCharge(*asset)
	if charge.Sign() <= 0 {
		return Draft{}, fmt.Errorf("%w: asset %d is fully depreciated", ErrValidation, asset.ID)
	}
	if bc.DebitAccountID == 0 || bc.CreditAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: depreciation accounts", ErrMissingField)
	}
	entries := []EntryInput{
		{AccountID: bc.DebitAccountID, Debit: charge, Description: asset.Description},
		{AccountID: bc.CreditAccountID, Credit: charge, Description: asset.Description},
	}
	return Draft{
		Entries: entries,
		Base:    charge,
		VAT:     decimal.Zero,
		Asset:   &AssetEffect{AssetID: asset.ID, AccumulatedDelta: charge},
	}, nil
}

// buildDisposal derecognizes the asset: proceeds and accumulated
// depreciation come in on the debit side, the asset's cost leaves on the
// credit side, and the gain or loss leg absorbs the difference. A
// break-even disposal has no third leg.
func buildDisposal(bc BuildContext) (Draft, error) {
	asset := bc.Asset
	in := bc.Input
	if bc.CreditAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: asset ledger account", ErrMissingField)
	}
	if bc.AccumDeprAccountID == 0 {
		return Draft{}, fmt.Errorf("%w: accumulated depreciation account", ErrMissingField)
	}

	proceeds := in.Amount.Round(2)
	result := assets.Disposal(*asset, proceeds)

	var entries []EntryInput
	if proceeds.Sign() > 0 {
		if bc.DebitAccountID == 0 {
			return Draft{}, fmt.Errorf("%w: proceeds account", ErrMissingField)
		}
		entries = append(entries, EntryInput{AccountID: bc.DebitAccountID, Debit: proceeds, Description: "disposal proceeds"})
	}
	if asset.AccumulatedDepreciation.Sign() > 0 {
		entries = append(entries, EntryInput{AccountID: bc.AccumDeprAccountID, Debit: asset.AccumulatedDepreciation})
	}
	entries = append(entries, EntryInput{AccountID: bc.CreditAccountID, Credit: asset.Cost, Description: asset.Description})

	switch {
	case result.Loss():
		if bc.LossAccountID == 0 {
			return Draft{}, fmt.Errorf("%w: loss on disposal account", ErrMissingField)
		}
		entries = append(entries, EntryInput{AccountID: bc.LossAccountID, Debit: result.GainLoss.Abs(), Description: "loss on disposal"})
	case result.Gain():
		if bc.GainAccountID == 0 {
			return Draft{}, fmt.Errorf("%w: gain on disposal account", ErrMissingField)
		}
		entries = append(entries, EntryInput{AccountID: bc.GainAccountID, Credit: result.GainLoss, Description: "gain on disposal"})
	}

	var bank *BankEffect
	if proceeds.Sign() > 0 && in.PaymentMethod == PaymentMethodBank && in.BankAccountID != nil {
		bank = &BankEffect{BankAccountID: *in.BankAccountID, Delta: proceeds}
	}
	return Draft{
		Entries: entries,
		Base:    proceeds,
		VAT:     decimal.Zero,
		Bank:    bank,
		Asset:   &AssetEffect{AssetID: asset.ID, Dispose: true},
	}, nil
}

// bankEffect derives the default bank balance adjustment from the
// element's money direction. Elements with bespoke handling (disposal)
// set their own effect inside the build path.
func bankEffect(in Input, total decimal.Decimal) *BankEffect {
	if !in.Element.MovesBankBalance() || in.PaymentMethod != PaymentMethodBank || in.BankAccountID == nil {
		return nil
	}
	delta := total
	if !in.Element.BankOnDebitSide() {
		delta = total.Neg()
	}
	if delta.IsZero() {
		return nil
	}
	return &BankEffect{BankAccountID: *in.BankAccountID, Delta: delta}
}

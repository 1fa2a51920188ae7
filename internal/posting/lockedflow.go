package posting

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/documents"
	"github.com/ledgerline/ledgerline/internal/loans"
)

// ChartPort is the slice of the accounts service the resolver needs:
// well-known ledger lookup with one lazy-create self-heal.
type ChartPort interface {
	Ensure(ctx context.Context, companyID int64, spec accounts.WellKnownSpec) (accounts.Account, error)
}

// LoanPort reads loan records for term classification.
type LoanPort interface {
	Get(ctx context.Context, id int64) (loans.Loan, error)
}

// LockedFlow pins the ledger accounts for a document-originated
// transaction. Pinned accounts are authoritative; the orchestrator
// rejects caller overrides. ExtraLegs carry the companion cost-of-goods
// entries for issued invoices with product lines.
type LockedFlow struct {
	DebitAccountID  int64
	CreditAccountID int64
	DocumentTotal   decimal.Decimal
	DocumentNumber  string
	ExtraLegs       []EntryInput
}

// Resolver derives locked flows from upstream documents.
type Resolver struct {
	docs  documents.Repository
	chart ChartPort
	loans LoanPort
}

// NewResolver wires the resolver's collaborators.
func NewResolver(docs documents.Repository, chart ChartPort, loanPort LoanPort) *Resolver {
	return &Resolver{docs: docs, chart: chart, loans: loanPort}
}

// Resolve pins both sides for the source document. bankLedgerID is the
// ledger behind the chosen bank account; it anchors payment flows.
func (r *Resolver) Resolve(ctx context.Context, companyID int64, source SourceRef, bankLedgerID int64) (LockedFlow, error) {
	switch source.Kind {
	case SourceInvoiceIssued:
		return r.resolveInvoiceIssued(ctx, companyID, source.DocumentID)
	case SourceInvoicePaid:
		return r.resolveInvoicePaid(ctx, companyID, source.DocumentID, bankLedgerID)
	case SourcePurchaseOrderSent:
		return r.resolvePurchaseOrder(ctx, companyID, source.DocumentID)
	}
	return LockedFlow{}, fmt.Errorf("%w: unknown source kind %q", ErrValidation, source.Kind)
}

func (r *Resolver) resolveInvoiceIssued(ctx context.Context, companyID, invoiceID int64) (LockedFlow, error) {
	inv, err := r.docs.GetInvoice(ctx, invoiceID)
	if err != nil {
		return LockedFlow{}, err
	}
	receivable, err := r.chart.Ensure(ctx, companyID, accounts.SpecReceivable)
	if err != nil {
		return LockedFlow{}, err
	}
	revenue, err := r.chart.Ensure(ctx, companyID, accounts.SpecSalesRevenue)
	if err != nil {
		return LockedFlow{}, err
	}
	flow := LockedFlow{
		DebitAccountID:  receivable.ID,
		CreditAccountID: revenue.ID,
		DocumentTotal:   inv.Total,
		DocumentNumber:  inv.Number,
	}

	cost := productCost(inv.Lines)
	if cost.Sign() > 0 {
		cogs, err := r.chart.Ensure(ctx, companyID, accounts.SpecCOGS)
		if err != nil {
			return LockedFlow{}, err
		}
		inventory, err := r.chart.Ensure(ctx, companyID, accounts.SpecInventory)
		if err != nil {
			return LockedFlow{}, err
		}
		flow.ExtraLegs = []EntryInput{
			{AccountID: cogs.ID, Debit: cost, Description: "COGS " + inv.Number},
			{AccountID: inventory.ID, Credit: cost, Description: "COGS " + inv.Number},
		}
	}
	return flow, nil
}

func (r *Resolver) resolveInvoicePaid(ctx context.Context, companyID, invoiceID, bankLedgerID int64) (LockedFlow, error) {
	inv, err := r.docs.GetInvoice(ctx, invoiceID)
	if err != nil {
		return LockedFlow{}, err
	}
	receivable, err := r.chart.Ensure(ctx, companyID, accounts.SpecReceivable)
	if err != nil {
		return LockedFlow{}, err
	}
	if bankLedgerID == 0 {
		bankAcct, err := r.chart.Ensure(ctx, companyID, accounts.SpecBank)
		if err != nil {
			return LockedFlow{}, err
		}
		bankLedgerID = bankAcct.ID
	}
	return LockedFlow{
		DebitAccountID:  bankLedgerID,
		CreditAccountID: receivable.ID,
		DocumentTotal:   inv.Total,
		DocumentNumber:  inv.Number,
	}, nil
}

func (r *Resolver) resolvePurchaseOrder(ctx context.Context, companyID, poID int64) (LockedFlow, error) {
	po, err := r.docs.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return LockedFlow{}, err
	}
	inventory, err := r.chart.Ensure(ctx, companyID, accounts.SpecInventory)
	if err != nil {
		return LockedFlow{}, err
	}

	creditSpec := accounts.SpecPayable
	if po.LoanFunded {
		creditSpec = accounts.SpecLoanLongTerm
		if po.LoanID != nil {
			loan, err := r.loans.Get(ctx, *po.LoanID)
			if err != nil {
				return LockedFlow{}, err
			}
			if loan.ShortTerm() {
				creditSpec = accounts.SpecLoanShortTerm
			}
		}
	}
	credit, err := r.chart.Ensure(ctx, companyID, creditSpec)
	if err != nil {
		return LockedFlow{}, err
	}
	return LockedFlow{
		DebitAccountID:  inventory.ID,
		CreditAccountID: credit.ID,
		DocumentTotal:   po.Total,
		DocumentNumber:  po.Number,
	}, nil
}

// productCost sums quantity x product cost across product-type lines
// with a resolvable cost.
func productCost(lines []documents.InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.ItemType != documents.ItemTypeProduct || line.ProductCost == nil {
			continue
		}
		total = total.Add(line.Quantity.Mul(*line.ProductCost))
	}
	return total.Round(2)
}

package posting

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/documents"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type fakeDocs struct {
	invoices map[int64]documents.Invoice
	orders   map[int64]documents.PurchaseOrder
}

func (f *fakeDocs) GetInvoice(_ context.Context, id int64) (documents.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return documents.Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (f *fakeDocs) GetPurchaseOrder(_ context.Context, id int64) (documents.PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return documents.PurchaseOrder{}, shared.ErrNotFound
	}
	return po, nil
}

// fakeChartPort hands out stable IDs per well-known code.
type fakeChartPort struct {
	ids map[string]int64
}

func (f *fakeChartPort) Ensure(_ context.Context, companyID int64, spec accounts.WellKnownSpec) (accounts.Account, error) {
	id, ok := f.ids[spec.Code]
	if !ok {
		id = int64(len(f.ids) + 1)
		f.ids[spec.Code] = id
	}
	return accounts.Account{ID: id, CompanyID: companyID, Code: spec.Code, Name: spec.Name, Type: spec.Type}, nil
}

type fakeLoanPort struct {
	loans map[int64]loans.Loan
}

func (f *fakeLoanPort) Get(_ context.Context, id int64) (loans.Loan, error) {
	l, ok := f.loans[id]
	if !ok {
		return loans.Loan{}, shared.ErrNotFound
	}
	return l, nil
}

func newTestResolver(docs *fakeDocs, loanPort *fakeLoanPort) (*Resolver, *fakeChartPort) {
	chart := &fakeChartPort{ids: map[string]int64{
		accounts.CodeBank:         10,
		accounts.CodeReceivable:   11,
		accounts.CodeInventory:    12,
		accounts.CodePayable:      21,
		accounts.CodeSalesRevenue: 40,
		accounts.CodeCOGS:         51,
	}}
	if loanPort == nil {
		loanPort = &fakeLoanPort{loans: map[int64]loans.Loan{}}
	}
	return NewResolver(docs, chart, loanPort), chart
}

func TestResolveInvoiceIssuedWithProductLines(t *testing.T) {
	cost := decimal.NewFromInt(40)
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		7: {
			ID:     7,
			Number: "INV-007",
			Total:  decimal.NewFromInt(500),
			Lines: []documents.InvoiceLine{
				{ItemType: documents.ItemTypeProduct, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100), ProductCost: &cost},
				{ItemType: documents.ItemTypeService, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(200)},
			},
		},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoiceIssued, DocumentID: 7}, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(11), flow.DebitAccountID)
	assert.Equal(t, int64(40), flow.CreditAccountID)
	assert.True(t, flow.DocumentTotal.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "INV-007", flow.DocumentNumber)

	require.Len(t, flow.ExtraLegs, 2)
	assert.Equal(t, int64(51), flow.ExtraLegs[0].AccountID)
	assert.True(t, flow.ExtraLegs[0].Debit.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, int64(12), flow.ExtraLegs[1].AccountID)
	assert.True(t, flow.ExtraLegs[1].Credit.Equal(decimal.NewFromInt(120)))
}

func TestResolveInvoiceIssuedServiceOnly(t *testing.T) {
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		8: {
			ID:     8,
			Number: "INV-008",
			Total:  decimal.NewFromInt(200),
			Lines: []documents.InvoiceLine{
				{ItemType: documents.ItemTypeService, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(200)},
			},
		},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoiceIssued, DocumentID: 8}, 0)
	require.NoError(t, err)
	assert.Empty(t, flow.ExtraLegs)
}

func TestResolveInvoiceIssuedSkipsLinesWithoutCost(t *testing.T) {
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		9: {
			ID:     9,
			Number: "INV-009",
			Total:  decimal.NewFromInt(300),
			Lines: []documents.InvoiceLine{
				{ItemType: documents.ItemTypeProduct, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(150)},
			},
		},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoiceIssued, DocumentID: 9}, 0)
	require.NoError(t, err)
	assert.Empty(t, flow.ExtraLegs)
}

func TestResolveInvoicePaidUsesChosenBankLedger(t *testing.T) {
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		7: {ID: 7, Number: "INV-007", Total: decimal.NewFromInt(500)},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoicePaid, DocumentID: 7}, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), flow.DebitAccountID)
	assert.Equal(t, int64(11), flow.CreditAccountID)
}

func TestResolveInvoicePaidFallsBackToDefaultBank(t *testing.T) {
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		7: {ID: 7, Number: "INV-007", Total: decimal.NewFromInt(500)},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoicePaid, DocumentID: 7}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), flow.DebitAccountID)
}

func TestResolvePurchaseOrderOnCredit(t *testing.T) {
	docs := &fakeDocs{orders: map[int64]documents.PurchaseOrder{
		3: {ID: 3, Number: "PO-003", Total: decimal.NewFromInt(900)},
	}}
	r, _ := newTestResolver(docs, nil)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourcePurchaseOrderSent, DocumentID: 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(12), flow.DebitAccountID)
	assert.Equal(t, int64(21), flow.CreditAccountID)
}

func TestResolvePurchaseOrderLoanFundedTerm(t *testing.T) {
	loanID := int64(5)
	docs := &fakeDocs{orders: map[int64]documents.PurchaseOrder{
		3: {ID: 3, Number: "PO-003", Total: decimal.NewFromInt(900), LoanFunded: true, LoanID: &loanID},
	}}
	loanPort := &fakeLoanPort{loans: map[int64]loans.Loan{
		5: {ID: 5, TermMonths: 6},
	}}
	r, chart := newTestResolver(docs, loanPort)

	flow, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourcePurchaseOrderSent, DocumentID: 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, chart.ids[accounts.CodeLoanShortTerm], flow.CreditAccountID)

	loanPort.loans[5] = loans.Loan{ID: 5, TermMonths: 36}
	flow, err = r.Resolve(context.Background(), 1, SourceRef{Kind: SourcePurchaseOrderSent, DocumentID: 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, chart.ids[accounts.CodeLoanLongTerm], flow.CreditAccountID)
}

func TestResolveMissingDocument(t *testing.T) {
	r, _ := newTestResolver(&fakeDocs{}, nil)
	_, err := r.Resolve(context.Background(), 1, SourceRef{Kind: SourceInvoiceIssued, DocumentID: 404}, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

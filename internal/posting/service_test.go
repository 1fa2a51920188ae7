package posting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/bank"
	"github.com/ledgerline/ledgerline/internal/documents"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// memStore is an in-memory Repository/TxRepository with snapshot-based
// rollback, so atomicity behavior is observable without a database.
type memStore struct {
	mu           sync.Mutex
	seq          int64
	transactions map[int64]Transaction
	entries      map[int64][]Entry
	ledger       map[int64][]LedgerEntry
	bankAccounts map[int64]*bank.BankAccount
	loans        map[int64]loans.Loan
	assets       map[int64]assets.FixedAsset

	failOnLedgerInsert bool
}

func newMemStore() *memStore {
	return &memStore{
		transactions: map[int64]Transaction{},
		entries:      map[int64][]Entry{},
		ledger:       map[int64][]LedgerEntry{},
		bankAccounts: map[int64]*bank.BankAccount{},
		loans:        map[int64]loans.Loan{},
		assets:       map[int64]assets.FixedAsset{},
	}
}

type memSnapshot struct {
	seq          int64
	transactions map[int64]Transaction
	entries      map[int64][]Entry
	ledger       map[int64][]LedgerEntry
	bankBalances map[int64]decimal.Decimal
	loans        map[int64]loans.Loan
	assets       map[int64]assets.FixedAsset
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		seq:          m.seq,
		transactions: map[int64]Transaction{},
		entries:      map[int64][]Entry{},
		ledger:       map[int64][]LedgerEntry{},
		bankBalances: map[int64]decimal.Decimal{},
		loans:        map[int64]loans.Loan{},
		assets:       map[int64]assets.FixedAsset{},
	}
	for k, v := range m.transactions {
		s.transactions[k] = v
	}
	for k, v := range m.entries {
		s.entries[k] = append([]Entry(nil), v...)
	}
	for k, v := range m.ledger {
		s.ledger[k] = append([]LedgerEntry(nil), v...)
	}
	for k, v := range m.bankAccounts {
		s.bankBalances[k] = v.Balance
	}
	for k, v := range m.loans {
		s.loans[k] = v
	}
	for k, v := range m.assets {
		s.assets[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.seq = s.seq
	m.transactions = s.transactions
	m.entries = s.entries
	m.ledger = s.ledger
	for k, balance := range s.bankBalances {
		m.bankAccounts[k].Balance = balance
	}
	m.loans = s.loans
	m.assets = s.assets
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id int64) (Transaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (m *memStore) ListTransactions(_ context.Context, companyID int64, _, _ int) ([]Transaction, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ListEntries(_ context.Context, transactionID int64) ([]Entry, error) {
	return append([]Entry(nil), m.entries[transactionID]...), nil
}

func (m *memStore) CountSimilar(_ context.Context, key SimilarityKey) (int, error) {
	n := 0
	for _, t := range m.transactions {
		if t.CompanyID != key.CompanyID || t.ID == key.ExcludeID {
			continue
		}
		if (t.BankAccountID == nil) != (key.BankAccountID == nil) {
			continue
		}
		if t.BankAccountID != nil && *t.BankAccountID != *key.BankAccountID {
			continue
		}
		if !t.Date.Equal(key.Date) || !t.TotalAmount.Equal(key.Amount) {
			continue
		}
		if NormalizeDescription(t.Description) != key.Description {
			continue
		}
		n++
	}
	return n, nil
}

func (m *memStore) InsertTransaction(_ context.Context, txn *Transaction) error {
	m.seq++
	txn.ID = m.seq
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	m.transactions[txn.ID] = *txn
	return nil
}

func (m *memStore) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return m.GetTransaction(ctx, id)
}

func (m *memStore) UpdateTransaction(_ context.Context, txn *Transaction) error {
	if _, ok := m.transactions[txn.ID]; !ok {
		return ErrTransactionNotFound
	}
	m.transactions[txn.ID] = *txn
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, status Status) error {
	t, ok := m.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	t.Status = status
	m.transactions[id] = t
	return nil
}

func (m *memStore) InsertEntries(_ context.Context, transactionID int64, status Status, entries []EntryInput) error {
	for _, e := range entries {
		m.seq++
		m.entries[transactionID] = append(m.entries[transactionID], Entry{
			ID:            m.seq,
			TransactionID: transactionID,
			AccountID:     e.AccountID,
			Debit:         e.Debit,
			Credit:        e.Credit,
			Description:   e.Description,
			Status:        status,
		})
	}
	return nil
}

func (m *memStore) InsertLedgerEntries(_ context.Context, companyID, transactionID int64, entryDate time.Time, entries []EntryInput) error {
	if m.failOnLedgerInsert {
		return errors.New("disk full")
	}
	for _, e := range entries {
		m.seq++
		m.ledger[transactionID] = append(m.ledger[transactionID], LedgerEntry{
			ID:            m.seq,
			CompanyID:     companyID,
			TransactionID: transactionID,
			AccountID:     e.AccountID,
			EntryDate:     entryDate,
			Debit:         e.Debit,
			Credit:        e.Credit,
		})
	}
	return nil
}

func (m *memStore) DeleteEntries(_ context.Context, transactionID int64) error {
	delete(m.entries, transactionID)
	return nil
}

func (m *memStore) DeleteLedgerEntries(_ context.Context, transactionID int64) error {
	delete(m.ledger, transactionID)
	return nil
}

func (m *memStore) AdjustBankBalance(_ context.Context, bankAccountID int64, delta decimal.Decimal) error {
	acct, ok := m.bankAccounts[bankAccountID]
	if !ok {
		return shared.ErrNotFound
	}
	acct.Balance = acct.Balance.Add(delta)
	return nil
}

func (m *memStore) AdjustLoanBalance(_ context.Context, loanID int64, delta decimal.Decimal) error {
	l, ok := m.loans[loanID]
	if !ok {
		return shared.ErrNotFound
	}
	l.OutstandingBalance = l.OutstandingBalance.Add(delta)
	if l.OutstandingBalance.Sign() <= 0 {
		l.OutstandingBalance = decimal.Zero
		l.Status = loans.LoanStatusCompleted
	} else {
		l.Status = loans.LoanStatusActive
	}
	m.loans[loanID] = l
	return nil
}

func (m *memStore) AdjustAssetAccumulated(_ context.Context, assetID int64, delta decimal.Decimal) error {
	a, ok := m.assets[assetID]
	if !ok {
		return shared.ErrNotFound
	}
	a.AccumulatedDepreciation = a.AccumulatedDepreciation.Add(delta)
	if a.AccumulatedDepreciation.Sign() < 0 {
		a.AccumulatedDepreciation = decimal.Zero
	}
	if a.AccumulatedDepreciation.GreaterThan(a.Cost) {
		a.AccumulatedDepreciation = a.Cost
	}
	m.assets[assetID] = a
	return nil
}

func (m *memStore) SetAssetDisposed(_ context.Context, assetID int64, disposalDate time.Time) error {
	a, ok := m.assets[assetID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Status = assets.AssetStatusDisposed
	a.DisposalDate = &disposalDate
	m.assets[assetID] = a
	return nil
}

func (m *memStore) SetAssetActive(_ context.Context, assetID int64) error {
	a, ok := m.assets[assetID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Status = assets.AssetStatusActive
	a.DisposalDate = nil
	m.assets[assetID] = a
	return nil
}

func (m *memStore) CreateLoan(_ context.Context, loan *loans.Loan) error {
	for _, l := range m.loans {
		if l.CompanyID == loan.CompanyID && l.Reference == loan.Reference {
			return shared.ErrConflict
		}
	}
	m.seq++
	loan.ID = m.seq
	loan.Status = loans.LoanStatusActive
	m.loans[loan.ID] = *loan
	return nil
}

func (m *memStore) CreateFixedAsset(_ context.Context, asset *assets.FixedAsset) error {
	m.seq++
	asset.ID = m.seq
	asset.Status = assets.AssetStatusActive
	m.assets[asset.ID] = *asset
	return nil
}

// fakeChart serves the chart and lazily creates well-known ledgers.
type fakeChart struct {
	accounts []accounts.Account
	nextID   int64
}

func (f *fakeChart) List(_ context.Context, _ int64) ([]accounts.Account, error) {
	return f.accounts, nil
}

func (f *fakeChart) Ensure(_ context.Context, companyID int64, spec accounts.WellKnownSpec) (accounts.Account, error) {
	for _, a := range f.accounts {
		if a.Code == spec.Code {
			return a, nil
		}
	}
	f.nextID++
	a := accounts.Account{ID: 1000 + f.nextID, CompanyID: companyID, Code: spec.Code, Name: spec.Name, Type: spec.Type, IsActive: true}
	f.accounts = append(f.accounts, a)
	return a, nil
}

type bankReaderFake struct{ store *memStore }

func (f bankReaderFake) Get(_ context.Context, id int64) (bank.BankAccount, error) {
	acct, ok := f.store.bankAccounts[id]
	if !ok {
		return bank.BankAccount{}, shared.ErrNotFound
	}
	return *acct, nil
}

type loanServiceFake struct{ store *memStore }

func (f loanServiceFake) Get(_ context.Context, id int64) (loans.Loan, error) {
	l, ok := f.store.loans[id]
	if !ok {
		return loans.Loan{}, shared.ErrNotFound
	}
	return l, nil
}

func (f loanServiceFake) CheckInstallmentPeriod(_ context.Context, loanID int64, date time.Time, kind loans.InstallmentKind, excludeTransactionID int64) error {
	element := ElementLoanRepayment
	if kind == loans.InstallmentInterest {
		element = ElementLoanInterest
	}
	for _, t := range f.store.transactions {
		if t.LoanID == nil || *t.LoanID != loanID || t.Element != element || t.ID == excludeTransactionID {
			continue
		}
		if t.Status == StatusPending {
			continue
		}
		if t.Date.Year() == date.Year() && t.Date.Month() == date.Month() {
			return loans.ErrDuplicateInstallment
		}
	}
	return nil
}

type assetReaderFake struct{ store *memStore }

func (f assetReaderFake) Get(_ context.Context, id int64) (assets.FixedAsset, error) {
	a, ok := f.store.assets[id]
	if !ok {
		return assets.FixedAsset{}, shared.ErrNotFound
	}
	return a, nil
}

func newTestService(t *testing.T, docs *fakeDocs) (*Service, *memStore, *fakeChart) {
	t.Helper()
	store := newMemStore()
	store.bankAccounts[7] = &bank.BankAccount{
		ID: 7, CompanyID: 1, Name: "Main", LedgerCode: accounts.CodeBank,
		Balance: decimal.NewFromInt(10000), IsActive: true,
	}
	chart := &fakeChart{accounts: testChart()}
	if docs == nil {
		docs = &fakeDocs{}
	}
	loanSvc := loanServiceFake{store: store}
	resolver := NewResolver(docs, chart, loanSvc)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, chart, bankReaderFake{store: store}, loanSvc, assetReaderFake{store: store}, resolver, nil, nil, logger)
	return svc, store, chart
}

func TestPostExpenseWritesEverythingAtomically(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	in := baseInput(ElementExpense, "1150")
	in.VATRate = decimal.NewFromInt(15)
	in.VATInclusive = true
	in.DebitAccountID = 12

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	require.NotZero(t, res.TransactionID)
	assert.False(t, res.DuplicateWarning)

	txn := store.transactions[res.TransactionID]
	assert.Equal(t, StatusPosted, txn.Status)
	assert.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(1150)))
	assert.True(t, txn.BaseAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, txn.VATAmount.Equal(decimal.NewFromInt(150)))
	assert.NotEqual(t, "", txn.PostingUID.String())

	entries := store.entries[res.TransactionID]
	require.Len(t, entries, 3)
	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	assert.True(t, debits.Equal(credits), "entries must balance")
	assert.Len(t, store.ledger[res.TransactionID], 3, "ledger mirror follows entries")

	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(8850)))
}

func TestPostEmptyChartIsFatal(t *testing.T) {
	svc, _, chart := newTestService(t, nil)
	chart.accounts = nil

	in := baseInput(ElementExpense, "100")
	_, err := svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, ErrChartMissing)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostBankLedgerMissing(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.bankAccounts[7].LedgerCode = "1050" // no such ledger in the chart

	in := baseInput(ElementExpense, "100")
	in.DebitAccountID = 12
	_, err := svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, ErrBankLedgerMissing)
}

func TestPostLoanReceivedOpensLoanInSameCommit(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	in := baseInput(ElementLoanReceived, "120000")
	in.LoanReference = "LN-2026-001"
	in.LoanAnnualRate = decimal.RequireFromString("0.12")
	in.LoanTermMonths = 24

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	txn := store.transactions[res.TransactionID]
	require.NotNil(t, txn.LoanID)
	loan := store.loans[*txn.LoanID]
	assert.Equal(t, "LN-2026-001", loan.Reference)
	assert.True(t, loan.MonthlyRepayment.Equal(decimal.RequireFromString("5648.56")))
	assert.True(t, loan.OutstandingBalance.Equal(decimal.NewFromInt(120000)), "opening balance equals principal, no double count")

	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(130000)))

	// Credit side auto-selected the long-term liability for a 24-month term.
	for _, e := range store.entries[res.TransactionID] {
		if e.Credit.Sign() > 0 {
			assert.Equal(t, int64(9), e.AccountID)
		}
	}
}

func TestPostLoanRepaymentDuplicateMonthRejected(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.loans[50] = loans.Loan{
		ID: 50, CompanyID: 1, Reference: "LN-X", TermMonths: 24,
		OutstandingBalance: decimal.NewFromInt(120000), Status: loans.LoanStatusActive,
	}
	loanID := int64(50)

	in := baseInput(ElementLoanRepayment, "5648.56")
	in.LoanID = &loanID

	_, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, store.loans[50].OutstandingBalance.Equal(decimal.RequireFromString("114351.44")))

	_, err = svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, loans.ErrDuplicateInstallment)

	in.Date = in.Date.AddDate(0, 1, 0)
	_, err = svc.Post(context.Background(), in)
	assert.NoError(t, err, "next calendar month is fine")
}

func TestEditReversesOldEffectsBeforeReapplying(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	in := baseInput(ElementExpense, "1150")
	in.VATRate = decimal.NewFromInt(15)
	in.VATInclusive = true
	in.DebitAccountID = 12

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	originalUID := store.transactions[res.TransactionID].PostingUID

	in.Amount = decimal.NewFromInt(2300)
	in.Description = "corrected amount"
	_, err = svc.Edit(context.Background(), res.TransactionID, in)
	require.NoError(t, err)

	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(7700)),
		"old 1150 restored, new 2300 applied")

	txn := store.transactions[res.TransactionID]
	assert.Equal(t, originalUID, txn.PostingUID, "edit keeps the posting identity")
	assert.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(2300)))
	assert.Equal(t, "corrected amount", txn.Description)
	require.Len(t, store.entries[res.TransactionID], 3)
}

func TestUnreconcileStripsEntriesAndRestoresBalances(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	in := baseInput(ElementExpense, "500")
	in.DebitAccountID = 12
	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	require.NoError(t, svc.Unreconcile(context.Background(), res.TransactionID, 1))

	txn := store.transactions[res.TransactionID]
	assert.Equal(t, StatusPending, txn.Status)
	assert.Empty(t, store.entries[res.TransactionID])
	assert.Empty(t, store.ledger[res.TransactionID])
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(10000)))

	err = svc.Unreconcile(context.Background(), res.TransactionID, 1)
	assert.ErrorIs(t, err, ErrNotPosted)
}

func TestStorageFailureLeavesNoPartialWrite(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.failOnLedgerInsert = true

	in := baseInput(ElementExpense, "500")
	in.DebitAccountID = 12
	_, err := svc.Post(context.Background(), in)
	require.Error(t, err)

	assert.Empty(t, store.transactions)
	assert.Empty(t, store.entries)
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(10000)))
}

func TestRepeatedPostingWarnsDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	in := baseInput(ElementExpense, "500")
	in.DebitAccountID = 12

	first, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.DuplicateWarning)

	second, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.DuplicateWarning, "same account, date, amount and description")
}

func TestDepreciationPostAndUnreconcile(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.assets[80] = assets.FixedAsset{
		ID: 80, CompanyID: 1, Description: "delivery van",
		Cost: decimal.NewFromInt(50000), UsefulLifeYears: 5,
		Status: assets.AssetStatusActive,
	}
	assetID := int64(80)

	in := baseInput(ElementDepreciation, "1")
	in.PaymentMethod = PaymentMethodCash
	in.BankAccountID = nil
	in.AssetID = &assetID

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	want := decimal.RequireFromString("833.33")
	assert.True(t, store.assets[80].AccumulatedDepreciation.Equal(want))
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(10000)), "book entry only")

	require.NoError(t, svc.Unreconcile(context.Background(), res.TransactionID, 1))
	assert.True(t, store.assets[80].AccumulatedDepreciation.IsZero())
}

func TestDisposalMarksAssetAndUnreconcileRevives(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.assets[80] = assets.FixedAsset{
		ID: 80, CompanyID: 1, Description: "delivery van",
		Cost: decimal.NewFromInt(50000), UsefulLifeYears: 5,
		AccumulatedDepreciation: decimal.NewFromInt(30000),
		Status:                  assets.AssetStatusActive,
	}
	assetID := int64(80)

	in := baseInput(ElementAssetDisposal, "15000")
	in.AssetID = &assetID
	in.CreditAccountID = 4 // Motor Vehicles

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, assets.AssetStatusDisposed, store.assets[80].Status)
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(25000)), "proceeds deposited")
	require.Len(t, store.entries[res.TransactionID], 4, "proceeds, accumulated, loss, asset cost")

	_, err = svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, assets.ErrAssetDisposed, "no second disposal of the same asset")

	require.NoError(t, svc.Unreconcile(context.Background(), res.TransactionID, 1))
	assert.Equal(t, assets.AssetStatusActive, store.assets[80].Status)
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(10000)))
}

func TestEditDisposalCorrectsProceeds(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.assets[80] = assets.FixedAsset{
		ID: 80, CompanyID: 1, Description: "delivery van",
		Cost: decimal.NewFromInt(50000), UsefulLifeYears: 5,
		AccumulatedDepreciation: decimal.NewFromInt(30000),
		Status:                  assets.AssetStatusActive,
	}
	assetID := int64(80)

	in := baseInput(ElementAssetDisposal, "15000")
	in.AssetID = &assetID
	in.CreditAccountID = 4 // Motor Vehicles

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	// The asset is disposed by the very transaction being edited; the
	// edit must still go through against the pre-posting state.
	in.Amount = decimal.NewFromInt(18000)
	_, err = svc.Edit(context.Background(), res.TransactionID, in)
	require.NoError(t, err)

	assert.Equal(t, assets.AssetStatusDisposed, store.assets[80].Status)
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(28000)),
		"old 15000 reversed, corrected 18000 deposited")
	require.Len(t, store.entries[res.TransactionID], 4)

	// Loss shrank from 5000 to 2000 against the 20000 net book value.
	var lossLeg decimal.Decimal
	for _, e := range store.entries[res.TransactionID] {
		if e.AccountID != 1 && e.AccountID != 6 && e.Debit.Sign() > 0 {
			lossLeg = e.Debit
		}
	}
	assert.True(t, lossLeg.Equal(decimal.NewFromInt(2000)))
}

func TestEditFinalDepreciationCharge(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	store.assets[81] = assets.FixedAsset{
		ID: 81, CompanyID: 1, Description: "laptop",
		Cost: decimal.NewFromInt(1200), UsefulLifeYears: 1,
		AccumulatedDepreciation: decimal.NewFromInt(1100),
		Status:                  assets.AssetStatusActive,
	}
	assetID := int64(81)

	in := baseInput(ElementDepreciation, "1")
	in.PaymentMethod = PaymentMethodCash
	in.BankAccountID = nil
	in.AssetID = &assetID

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, store.assets[81].AccumulatedDepreciation.Equal(decimal.NewFromInt(1200)))

	// Accumulated depreciation includes this posting's own charge; the
	// edit must not read the asset as already fully depreciated.
	in.Description = "December charge, corrected narrative"
	_, err = svc.Edit(context.Background(), res.TransactionID, in)
	require.NoError(t, err)

	assert.True(t, store.assets[81].AccumulatedDepreciation.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "December charge, corrected narrative", store.transactions[res.TransactionID].Description)
}

func TestPostLoanReceivedDuplicateReference(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	in := baseInput(ElementLoanReceived, "120000")
	in.LoanReference = "LN-2026-001"
	in.LoanAnnualRate = decimal.RequireFromString("0.12")
	in.LoanTermMonths = 24

	_, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "loan reference already in use")
}

func TestLockedFlowRejectsAccountOverride(t *testing.T) {
	docs := &fakeDocs{invoices: map[int64]documents.Invoice{
		7: {ID: 7, Number: "INV-007", Total: decimal.NewFromInt(500)},
	}}
	svc, _, _ := newTestService(t, docs)

	in := baseInput(ElementIncome, "500")
	in.PaymentMethod = PaymentMethodCredit
	in.BankAccountID = nil
	in.Source = &SourceRef{Kind: SourceInvoiceIssued, DocumentID: 7}
	in.DebitAccountID = 3 // resolver pins accounts receivable

	_, err := svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, ErrLockedAccountOverride)
}

func TestAssetPurchaseRegistersAsset(t *testing.T) {
	svc, store, _ := newTestService(t, nil)

	in := baseInput(ElementAssetPurchase, "57500")
	in.VATRate = decimal.NewFromInt(15)
	in.VATInclusive = true
	in.DebitAccountID = 4 // Motor Vehicles
	in.AssetDescription = "delivery van"
	in.AssetUsefulLifeYears = 5

	res, err := svc.Post(context.Background(), in)
	require.NoError(t, err)

	txn := store.transactions[res.TransactionID]
	require.NotNil(t, txn.AssetID)
	asset := store.assets[*txn.AssetID]
	assert.Equal(t, "delivery van", asset.Description)
	assert.True(t, asset.Cost.Equal(decimal.NewFromInt(50000)), "cost is the VAT-net amount")
	assert.Equal(t, 5, asset.UsefulLifeYears)
	assert.True(t, store.bankAccounts[7].Balance.Equal(decimal.NewFromInt(-47500)))
}

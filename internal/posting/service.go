package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/bank"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// ChartService is the accounts surface the orchestrator depends on.
type ChartService interface {
	List(ctx context.Context, companyID int64) ([]accounts.Account, error)
	Ensure(ctx context.Context, companyID int64, spec accounts.WellKnownSpec) (accounts.Account, error)
}

// BankReader resolves the chosen bank account to its ledger code.
type BankReader interface {
	Get(ctx context.Context, id int64) (bank.BankAccount, error)
}

// LoanService is the loans surface the orchestrator depends on.
type LoanService interface {
	Get(ctx context.Context, id int64) (loans.Loan, error)
	CheckInstallmentPeriod(ctx context.Context, loanID int64, date time.Time, kind loans.InstallmentKind, excludeTransactionID int64) error
}

// AssetReader reads asset records for depreciation and disposal.
type AssetReader interface {
	Get(ctx context.Context, id int64) (assets.FixedAsset, error)
}

// Auditor records domain actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Recorder counts posting outcomes.
type Recorder interface {
	RecordPosting(element, outcome string)
}

// Service orchestrates the full posting flow: validation, account
// resolution, entry construction and the atomic write with its balance
// side effects.
type Service struct {
	repo     Repository
	chart    ChartService
	bank     BankReader
	loans    LoanService
	assets   AssetReader
	resolver *Resolver
	guard    *DuplicateGuard
	audit    Auditor
	metrics  Recorder
	logger   *slog.Logger
}

// NewService wires the orchestrator. audit and metrics may be nil in
// tests; everything else is required.
func NewService(repo Repository, chart ChartService, bankReader BankReader, loanSvc LoanService,
	assetReader AssetReader, resolver *Resolver, audit Auditor, metrics Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		chart:    chart,
		bank:     bankReader,
		loans:    loanSvc,
		assets:   assetReader,
		resolver: resolver,
		guard:    NewDuplicateGuard(repo),
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
	}
}

// prepared is everything resolved before the write transaction opens. No
// lookups happen once the transaction holds locks.
type prepared struct {
	input    Input
	bc       BuildContext
	draft    Draft
	newLoan  *loans.Loan
	newAsset *assets.FixedAsset
	loanID   *int64
	assetID  *int64
}

// Post validates, resolves and atomically writes a new transaction. On
// success the entries, the ledger mirror and every balance side effect
// are committed together.
func (s *Service) Post(ctx context.Context, in Input) (Result, error) {
	p, err := s.prepare(ctx, in, 0)
	if err != nil {
		s.record(in.Element, "rejected")
		return Result{}, err
	}

	var txnID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := s.writeNew(ctx, tx, p)
		if err != nil {
			return err
		}
		txnID = txn.ID
		return nil
	})
	if err != nil {
		s.record(in.Element, "failed")
		return Result{}, err
	}

	s.record(in.Element, "posted")
	s.auditAction(ctx, in.ActorID, "transaction.posted", txnID, p)
	return s.result(ctx, in, txnID)
}

// Edit replaces a transaction's entries wholesale: the stored row is
// locked, old side effects are reversed, old entries deleted, and the
// transaction is rebuilt from the new input under the same posting UID.
func (s *Service) Edit(ctx context.Context, id int64, in Input) (Result, error) {
	p, err := s.prepare(ctx, in, id)
	if err != nil {
		s.record(in.Element, "rejected")
		return Result{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.reverseEffects(ctx, tx, old); err != nil {
			return err
		}
		if err := tx.DeleteEntries(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteLedgerEntries(ctx, id); err != nil {
			return err
		}
		if err := s.materialize(ctx, tx, &p); err != nil {
			return err
		}

		txn := s.header(p)
		txn.ID = old.ID
		txn.PostingUID = old.PostingUID
		if err := tx.UpdateTransaction(ctx, &txn); err != nil {
			return err
		}
		return s.writeEntries(ctx, tx, txn, p.draft)
	})
	if err != nil {
		s.record(in.Element, "failed")
		return Result{}, err
	}

	s.record(in.Element, "updated")
	s.auditAction(ctx, in.ActorID, "transaction.updated", id, p)
	return s.result(ctx, in, id)
}

// Unreconcile reverts a posted transaction to pending: entries and the
// ledger mirror are removed and balance effects rolled back. The header
// row survives for re-posting.
func (s *Service) Unreconcile(ctx context.Context, id int64, actorID int64) error {
	var element Element
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if old.Status != StatusPosted {
			return ErrNotPosted
		}
		element = old.Element
		if err := s.reverseEffects(ctx, tx, old); err != nil {
			return err
		}
		if err := tx.DeleteEntries(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteLedgerEntries(ctx, id); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, StatusPending)
	})
	if err != nil {
		return err
	}

	s.record(element, "unreconciled")
	if s.audit != nil {
		if auditErr := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "transaction.unreconciled",
			Entity:   "transaction",
			EntityID: strconv.FormatInt(id, 10),
		}); auditErr != nil {
			s.logger.WarnContext(ctx, "audit record failed", "error", auditErr)
		}
	}
	return nil
}

// Get returns a transaction header.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transaction headers for a company, newest first.
func (s *Service) List(ctx context.Context, companyID int64, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, companyID, limit, offset)
}

// Entries returns the persisted legs of a transaction.
func (s *Service) Entries(ctx context.Context, id int64) ([]Entry, error) {
	return s.repo.ListEntries(ctx, id)
}

// Candidates computes the admissible account sets for an element so a
// caller can populate its pickers.
func (s *Service) Candidates(ctx context.Context, companyID int64, element Element, chosenDebitID, chosenCreditID int64, loanID *int64) (Candidates, error) {
	chart, err := s.chart.List(ctx, companyID)
	if err != nil {
		return Candidates{}, err
	}
	var loan *loans.Loan
	if loanID != nil {
		l, err := s.loans.Get(ctx, *loanID)
		if err != nil {
			return Candidates{}, err
		}
		loan = &l
	}
	return Classify(element, chart, chosenDebitID, chosenCreditID, loan), nil
}

// prepare runs every read-side step of the posting flow. excludeTxID is
// the transaction being edited, zero for a fresh post.
func (s *Service) prepare(ctx context.Context, in Input, excludeTxID int64) (prepared, error) {
	if err := in.Validate(); err != nil {
		return prepared{}, err
	}

	chart, err := s.chart.List(ctx, in.CompanyID)
	if err != nil {
		return prepared{}, err
	}
	if len(chart) == 0 {
		return prepared{}, ErrChartMissing
	}

	bankLedgerID, err := s.resolveBankLedger(ctx, in, chart)
	if err != nil {
		return prepared{}, err
	}

	var prior *Transaction
	if excludeTxID != 0 {
		old, err := s.repo.GetTransaction(ctx, excludeTxID)
		if err != nil {
			return prepared{}, err
		}
		prior = &old
	}

	p := prepared{input: in, loanID: in.LoanID, assetID: in.AssetID}
	bc := BuildContext{Input: in}

	if err := s.resolveLoan(ctx, in, excludeTxID, &p, &bc); err != nil {
		return prepared{}, err
	}
	if err := s.resolveAsset(ctx, in, prior, &bc); err != nil {
		return prepared{}, err
	}

	if in.Source != nil {
		flow, err := s.resolver.Resolve(ctx, in.CompanyID, *in.Source, bankLedgerID)
		if err != nil {
			return prepared{}, err
		}
		if in.DebitAccountID != 0 && in.DebitAccountID != flow.DebitAccountID {
			return prepared{}, ErrLockedAccountOverride
		}
		if in.CreditAccountID != 0 && in.CreditAccountID != flow.CreditAccountID {
			return prepared{}, ErrLockedAccountOverride
		}
		bc.Flow = &flow
		bc.DebitAccountID = flow.DebitAccountID
		bc.CreditAccountID = flow.CreditAccountID
	} else {
		s.chooseAccounts(in, chart, bankLedgerID, &bc)
		if err := s.resolveVAT(ctx, in, &bc); err != nil {
			return prepared{}, err
		}
		if in.Element == ElementAssetDisposal {
			if err := s.resolveDisposalLedgers(ctx, in.CompanyID, &bc); err != nil {
				return prepared{}, err
			}
		}
	}

	draft, err := Build(bc)
	if err != nil {
		return prepared{}, err
	}
	p.bc = bc
	p.draft = draft

	if in.Element == ElementAssetPurchase && in.AssetID == nil {
		p.newAsset = &assets.FixedAsset{
			CompanyID:       in.CompanyID,
			Description:     in.AssetDescription,
			Cost:            draft.Base,
			PurchaseDate:    in.Date,
			UsefulLifeYears: in.AssetUsefulLifeYears,
		}
	}
	return p, nil
}

func (s *Service) resolveBankLedger(ctx context.Context, in Input, chart []accounts.Account) (int64, error) {
	if in.PaymentMethod != PaymentMethodBank || in.BankAccountID == nil || !in.Element.MovesBankBalance() {
		return 0, nil
	}
	acct, err := s.bank.Get(ctx, *in.BankAccountID)
	if err != nil {
		return 0, err
	}
	for _, a := range chart {
		if a.Code == acct.LedgerCode && a.IsActive {
			return a.ID, nil
		}
	}
	return 0, ErrBankLedgerMissing
}

func (s *Service) resolveLoan(ctx context.Context, in Input, excludeTxID int64, p *prepared, bc *BuildContext) error {
	switch in.Element {
	case ElementLoanReceived:
		if in.LoanID != nil {
			loan, err := s.loans.Get(ctx, *in.LoanID)
			if err != nil {
				return err
			}
			bc.Loan = &loan
			return nil
		}
		// A new loan opens inside the write transaction with the annuity
		// repayment precomputed; its opening balance is the principal.
		monthlyRate := in.LoanAnnualRate.Div(decimal.NewFromInt(12))
		p.newLoan = &loans.Loan{
			CompanyID:          in.CompanyID,
			Reference:          in.LoanReference,
			Principal:          in.Amount,
			InterestRate:       in.LoanAnnualRate,
			TermMonths:         in.LoanTermMonths,
			MonthlyRepayment:   loans.MonthlyRepayment(in.Amount, monthlyRate, in.LoanTermMonths),
			OutstandingBalance: in.Amount,
		}
		bc.Loan = p.newLoan
		bc.LoanCreated = true
		return nil
	case ElementLoanRepayment, ElementLoanInterest:
		loan, err := s.loans.Get(ctx, *in.LoanID)
		if err != nil {
			return err
		}
		kind := loans.InstallmentPrincipal
		if in.Element == ElementLoanInterest {
			kind = loans.InstallmentInterest
		}
		if err := s.loans.CheckInstallmentPeriod(ctx, loan.ID, in.Date, kind, excludeTxID); err != nil {
			return err
		}
		bc.Loan = &loan
		return nil
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
		ElementDepreciation, ElementAssetDisposal:
		return nil
	}
	return nil
}

func (s *Service) resolveAsset(ctx context.Context, in Input, prior *Transaction, bc *BuildContext) error {
	switch in.Element {
	case ElementDepreciation, ElementAssetDisposal:
		asset, err := s.assets.Get(ctx, *in.AssetID)
		if err != nil {
			return err
		}
		unapplyAssetFootprint(&asset, prior)
		if asset.Status == assets.AssetStatusDisposed {
			return assets.ErrAssetDisposed
		}
		bc.Asset = &asset
		return nil
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
		ElementLoanReceived, ElementLoanRepayment, ElementLoanInterest:
		return nil
	}
	return nil
}

// unapplyAssetFootprint backs the edited transaction's own movement out
// of the asset snapshot so an edit is evaluated against pre-posting
// state. The stored effect is reversed authoritatively inside the write
// transaction; this only keeps the read-side classification honest.
func unapplyAssetFootprint(asset *assets.FixedAsset, prior *Transaction) {
	if prior == nil || prior.Status != StatusPosted || prior.AssetID == nil || *prior.AssetID != asset.ID {
		return
	}
	switch prior.Element {
	case ElementDepreciation:
		asset.AccumulatedDepreciation = asset.AccumulatedDepreciation.Sub(prior.BaseAmount)
		if asset.AccumulatedDepreciation.Sign() < 0 {
			asset.AccumulatedDepreciation = decimal.Zero
		}
	case ElementAssetDisposal:
		asset.Status = assets.AssetStatusActive
		asset.DisposalDate = nil
	case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
		ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
		ElementLoanReceived, ElementLoanRepayment, ElementLoanInterest:
	}
}

// chooseAccounts settles the final debit and credit: explicit caller
// choice first, then the classifier's auto-selection, with the chosen
// bank account's ledger pinned to the cash side.
func (s *Service) chooseAccounts(in Input, chart []accounts.Account, bankLedgerID int64, bc *BuildContext) {
	cands := Classify(in.Element, chart, in.DebitAccountID, in.CreditAccountID, bc.Loan)
	bc.DebitAccountID = in.DebitAccountID
	bc.CreditAccountID = in.CreditAccountID
	if bc.DebitAccountID == 0 {
		bc.DebitAccountID = cands.AutoDebitID
	}
	if bc.CreditAccountID == 0 {
		bc.CreditAccountID = cands.AutoCreditID
	}
	if bankLedgerID != 0 {
		if in.Element.BankOnDebitSide() {
			bc.DebitAccountID = bankLedgerID
		} else {
			bc.CreditAccountID = bankLedgerID
		}
	}
}

func (s *Service) resolveVAT(ctx context.Context, in Input, bc *BuildContext) error {
	rate := in.EffectiveVATRate()
	needed := rate.Sign() > 0
	for _, line := range in.SplitLines {
		if line.VATRate.Sign() > 0 {
			needed = true
		}
	}
	if !needed {
		return nil
	}
	spec := accounts.SpecVATInput
	if in.Element.BankOnDebitSide() {
		spec = accounts.SpecVATOutput
	}
	acct, err := s.chart.Ensure(ctx, in.CompanyID, spec)
	if err != nil {
		return err
	}
	bc.VATAccountID = acct.ID
	return nil
}

func (s *Service) resolveDisposalLedgers(ctx context.Context, companyID int64, bc *BuildContext) error {
	accum, err := s.chart.Ensure(ctx, companyID, accounts.SpecAccumDepreciation)
	if err != nil {
		return err
	}
	gain, err := s.chart.Ensure(ctx, companyID, accounts.SpecGainOnDisposal)
	if err != nil {
		return err
	}
	loss, err := s.chart.Ensure(ctx, companyID, accounts.SpecLossOnDisposal)
	if err != nil {
		return err
	}
	bc.AccumDeprAccountID = accum.ID
	bc.GainAccountID = gain.ID
	bc.LossAccountID = loss.ID
	return nil
}

// materialize creates records the posting itself opens: a new loan for
// loan_received, a new asset for asset_purchase.
func (s *Service) materialize(ctx context.Context, tx TxRepository, p *prepared) error {
	if p.newLoan != nil {
		if err := tx.CreateLoan(ctx, p.newLoan); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				return fmt.Errorf("%w: loan reference already in use", ErrValidation)
			}
			return err
		}
		p.loanID = &p.newLoan.ID
	}
	if p.newAsset != nil {
		if err := tx.CreateFixedAsset(ctx, p.newAsset); err != nil {
			return err
		}
		p.assetID = &p.newAsset.ID
	}
	return nil
}

func (s *Service) header(p prepared) Transaction {
	in := p.input
	return Transaction{
		CompanyID:     in.CompanyID,
		PostingUID:    uuid.New(),
		Element:       in.Element,
		Date:          in.Date,
		Description:   in.Description,
		Reference:     in.Reference,
		PaymentMethod: in.PaymentMethod,
		BankAccountID: in.BankAccountID,
		TotalAmount:   p.draft.Total,
		BaseAmount:    p.draft.Base,
		VATAmount:     p.draft.VAT,
		VATRate:       p.draft.VATRate,
		VATInclusive:  in.VATInclusive,
		LoanID:        p.loanID,
		AssetID:       p.assetID,
		Status:        StatusPosted,
	}
}

func (s *Service) writeNew(ctx context.Context, tx TxRepository, p prepared) (Transaction, error) {
	if err := s.materialize(ctx, tx, &p); err != nil {
		return Transaction{}, err
	}
	txn := s.header(p)
	if err := tx.InsertTransaction(ctx, &txn); err != nil {
		return Transaction{}, err
	}
	if err := s.writeEntries(ctx, tx, txn, p.draft); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// writeEntries persists the legs, the ledger mirror and the balance side
// effects; all of it shares the caller's transaction.
func (s *Service) writeEntries(ctx context.Context, tx TxRepository, txn Transaction, draft Draft) error {
	if err := tx.InsertEntries(ctx, txn.ID, StatusPosted, draft.Entries); err != nil {
		return err
	}
	if err := tx.InsertLedgerEntries(ctx, txn.CompanyID, txn.ID, txn.Date, draft.Entries); err != nil {
		return err
	}
	if draft.Bank != nil {
		if err := tx.AdjustBankBalance(ctx, draft.Bank.BankAccountID, draft.Bank.Delta); err != nil {
			return err
		}
	}
	if draft.Loan != nil && !draft.Loan.PrincipalDelta.IsZero() {
		loanID := draft.Loan.LoanID
		if loanID == 0 && txn.LoanID != nil {
			loanID = *txn.LoanID
		}
		if err := tx.AdjustLoanBalance(ctx, loanID, draft.Loan.PrincipalDelta); err != nil {
			return err
		}
	}
	if draft.Asset != nil {
		assetID := draft.Asset.AssetID
		if assetID == 0 && txn.AssetID != nil {
			assetID = *txn.AssetID
		}
		if !draft.Asset.AccumulatedDelta.IsZero() {
			if err := tx.AdjustAssetAccumulated(ctx, assetID, draft.Asset.AccumulatedDelta); err != nil {
				return err
			}
		}
		if draft.Asset.Dispose {
			if err := tx.SetAssetDisposed(ctx, assetID, txn.Date); err != nil {
				return err
			}
		}
	}
	return nil
}

// reverseEffects rolls back the balance movements a stored transaction
// made, derived from its header. Entries are deleted separately.
func (s *Service) reverseEffects(ctx context.Context, tx TxRepository, old Transaction) error {
	if old.Status != StatusPosted {
		return nil
	}
	if old.PaymentMethod == PaymentMethodBank && old.BankAccountID != nil && old.Element.MovesBankBalance() {
		moved := old.TotalAmount
		if old.Element == ElementAssetDisposal {
			moved = old.BaseAmount
		}
		if !moved.IsZero() {
			delta := moved
			if old.Element.BankOnDebitSide() {
				delta = moved.Neg()
			}
			if err := tx.AdjustBankBalance(ctx, *old.BankAccountID, delta); err != nil {
				return err
			}
		}
	}
	if old.LoanID != nil {
		switch old.Element {
		case ElementLoanRepayment:
			if err := tx.AdjustLoanBalance(ctx, *old.LoanID, old.BaseAmount); err != nil {
				return err
			}
		case ElementLoanReceived:
			if err := tx.AdjustLoanBalance(ctx, *old.LoanID, old.TotalAmount.Neg()); err != nil {
				return err
			}
		case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
			ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
			ElementLoanInterest, ElementDepreciation, ElementAssetDisposal:
		}
	}
	if old.AssetID != nil {
		switch old.Element {
		case ElementDepreciation:
			if err := tx.AdjustAssetAccumulated(ctx, *old.AssetID, old.BaseAmount.Neg()); err != nil {
				return err
			}
		case ElementAssetDisposal:
			if err := tx.SetAssetActive(ctx, *old.AssetID); err != nil {
				return err
			}
		case ElementExpense, ElementIncome, ElementReceipt, ElementAssetPurchase,
			ElementProductPurchase, ElementLiabilityPayment, ElementEquityContribution,
			ElementLoanReceived, ElementLoanRepayment, ElementLoanInterest:
		}
	}
	return nil
}

func (s *Service) result(ctx context.Context, in Input, txnID int64) (Result, error) {
	warning, err := s.guard.Check(ctx, in, txnID)
	if err != nil {
		s.logger.WarnContext(ctx, "duplicate check failed", "error", err, "transaction_id", txnID)
		warning = false
	}
	return Result{TransactionID: txnID, DuplicateWarning: warning}, nil
}

func (s *Service) record(element Element, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPosting(string(element), outcome)
	}
}

func (s *Service) auditAction(ctx context.Context, actorID int64, action string, txnID int64, p prepared) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(txnID, 10),
		Meta: map[string]any{
			"element": string(p.input.Element),
			"total":   p.draft.Total.StringFixed(2),
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "error", err, "transaction_id", txnID)
	}
}

package posting

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/bank"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/platform/db"
)

// Repository is the read side plus the transactional entry point. All
// writes happen through WithTx so a posting and its balance side effects
// commit or roll back as one.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context, companyID int64, limit, offset int) ([]Transaction, error)
	ListEntries(ctx context.Context, transactionID int64) ([]Entry, error)
	CountSimilar(ctx context.Context, key SimilarityKey) (int, error)
}

// TxRepository is the write surface inside one database transaction.
// Balance adjustments for bank accounts, loans and assets are exposed
// here so they share the posting's commit; they run through the owning
// packages' repositories bound to the same transaction.
type TxRepository interface {
	InsertTransaction(ctx context.Context, txn *Transaction) error
	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	UpdateTransaction(ctx context.Context, txn *Transaction) error
	UpdateStatus(ctx context.Context, id int64, status Status) error

	InsertEntries(ctx context.Context, transactionID int64, status Status, entries []EntryInput) error
	InsertLedgerEntries(ctx context.Context, companyID, transactionID int64, entryDate time.Time, entries []EntryInput) error
	DeleteEntries(ctx context.Context, transactionID int64) error
	DeleteLedgerEntries(ctx context.Context, transactionID int64) error
	ListEntries(ctx context.Context, transactionID int64) ([]Entry, error)

	AdjustBankBalance(ctx context.Context, bankAccountID int64, delta decimal.Decimal) error
	AdjustLoanBalance(ctx context.Context, loanID int64, delta decimal.Decimal) error
	AdjustAssetAccumulated(ctx context.Context, assetID int64, delta decimal.Decimal) error
	SetAssetDisposed(ctx context.Context, assetID int64, disposalDate time.Time) error
	SetAssetActive(ctx context.Context, assetID int64) error

	CreateLoan(ctx context.Context, loan *loans.Loan) error
	CreateFixedAsset(ctx context.Context, asset *assets.FixedAsset) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			tx:     tx,
			bank:   bank.NewRepository(tx),
			loans:  loans.NewRepository(tx),
			assets: assets.NewRepository(tx),
		})
	})
}

const transactionColumns = `id, company_id, posting_uid, element, date, description, reference, payment_method, bank_account_id, total_amount, base_amount, vat_amount, vat_rate, vat_inclusive, loan_id, asset_id, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	var total, base, vat, rate string
	err := row.Scan(&t.ID, &t.CompanyID, &t.PostingUID, &t.Element, &t.Date, &t.Description,
		&t.Reference, &t.PaymentMethod, &t.BankAccountID, &total, &base, &vat, &rate,
		&t.VATInclusive, &t.LoanID, &t.AssetID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	if t.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return Transaction{}, err
	}
	if t.BaseAmount, err = decimal.NewFromString(base); err != nil {
		return Transaction{}, err
	}
	if t.VATAmount, err = decimal.NewFromString(vat); err != nil {
		return Transaction{}, err
	}
	if t.VATRate, err = decimal.NewFromString(rate); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) ListTransactions(ctx context.Context, companyID int64, limit, offset int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
WHERE company_id=$1 ORDER BY date DESC, id DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) ListEntries(ctx context.Context, transactionID int64) ([]Entry, error) {
	return listEntries(ctx, r.db, transactionID)
}

// CountSimilar normalizes stored descriptions the same way the guard
// normalizes input: lowercase, whitespace collapsed.
func (r *repository) CountSimilar(ctx context.Context, key SimilarityKey) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions
WHERE company_id=$1
  AND bank_account_id IS NOT DISTINCT FROM $2
  AND date=$3
  AND total_amount=$4
  AND lower(regexp_replace(btrim(description), '\s+', ' ', 'g')) = $5
  AND id<>$6`,
		key.CompanyID, key.BankAccountID, key.Date, key.Amount.StringFixed(2), key.Description, key.ExcludeID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listEntries(ctx context.Context, q querier, transactionID int64) ([]Entry, error) {
	rows, err := q.Query(ctx, `SELECT id, transaction_id, account_id, debit, credit, description, status, created_at
FROM entries WHERE transaction_id=$1 ORDER BY id ASC`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var debit, credit string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &debit, &credit, &e.Description, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// txRepository binds the write surface to one pgx transaction. Balance
// movements and record creation delegate to the owning packages'
// repositories over the same transaction, so the SQL lives in one place.
type txRepository struct {
	tx     pgx.Tx
	bank   bank.Repository
	loans  loans.Repository
	assets assets.Repository
}

func (r *txRepository) InsertTransaction(ctx context.Context, txn *Transaction) error {
	return r.tx.QueryRow(ctx, `INSERT INTO transactions
(company_id, posting_uid, element, date, description, reference, payment_method, bank_account_id,
 total_amount, base_amount, vat_amount, vat_rate, vat_inclusive, loan_id, asset_id, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING id, created_at, updated_at`,
		txn.CompanyID, txn.PostingUID, txn.Element, txn.Date, txn.Description, txn.Reference,
		txn.PaymentMethod, txn.BankAccountID, txn.TotalAmount.StringFixed(2), txn.BaseAmount.StringFixed(2),
		txn.VATAmount.StringFixed(2), txn.VATRate.String(), txn.VATInclusive, txn.LoanID, txn.AssetID, txn.Status).
		Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
}

// GetTransactionForUpdate takes the row lock that serializes edit and
// unreconcile against concurrent postings on the same transaction.
func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) UpdateTransaction(ctx context.Context, txn *Transaction) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET
element=$2, date=$3, description=$4, reference=$5, payment_method=$6, bank_account_id=$7,
total_amount=$8, base_amount=$9, vat_amount=$10, vat_rate=$11, vat_inclusive=$12,
loan_id=$13, asset_id=$14, status=$15, updated_at=NOW()
WHERE id=$1`,
		txn.ID, txn.Element, txn.Date, txn.Description, txn.Reference, txn.PaymentMethod,
		txn.BankAccountID, txn.TotalAmount.StringFixed(2), txn.BaseAmount.StringFixed(2),
		txn.VATAmount.StringFixed(2), txn.VATRate.String(), txn.VATInclusive,
		txn.LoanID, txn.AssetID, txn.Status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) InsertEntries(ctx context.Context, transactionID int64, status Status, entries []EntryInput) error {
	for _, e := range entries {
		_, err := r.tx.Exec(ctx, `INSERT INTO entries (transaction_id, account_id, debit, credit, description, status)
VALUES ($1,$2,$3,$4,$5,$6)`,
			transactionID, e.AccountID, e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Description, status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertLedgerEntries(ctx context.Context, companyID, transactionID int64, entryDate time.Time, entries []EntryInput) error {
	for _, e := range entries {
		_, err := r.tx.Exec(ctx, `INSERT INTO ledger_entries (company_id, transaction_id, account_id, entry_date, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6)`,
			companyID, transactionID, e.AccountID, entryDate, e.Debit.StringFixed(2), e.Credit.StringFixed(2))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteEntries(ctx context.Context, transactionID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM entries WHERE transaction_id=$1`, transactionID)
	return err
}

func (r *txRepository) DeleteLedgerEntries(ctx context.Context, transactionID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM ledger_entries WHERE transaction_id=$1`, transactionID)
	return err
}

func (r *txRepository) ListEntries(ctx context.Context, transactionID int64) ([]Entry, error) {
	return listEntries(ctx, r.tx, transactionID)
}

func (r *txRepository) AdjustBankBalance(ctx context.Context, bankAccountID int64, delta decimal.Decimal) error {
	direction := bank.DirectionDeposit
	if delta.Sign() < 0 {
		direction = bank.DirectionWithdraw
		delta = delta.Neg()
	}
	return r.bank.AdjustBalance(ctx, bankAccountID, delta, direction)
}

func (r *txRepository) AdjustLoanBalance(ctx context.Context, loanID int64, delta decimal.Decimal) error {
	return r.loans.AdjustBalance(ctx, loanID, delta)
}

func (r *txRepository) AdjustAssetAccumulated(ctx context.Context, assetID int64, delta decimal.Decimal) error {
	return r.assets.AdjustAccumulated(ctx, assetID, delta)
}

func (r *txRepository) SetAssetDisposed(ctx context.Context, assetID int64, disposalDate time.Time) error {
	return r.assets.SetDisposed(ctx, assetID, &disposalDate)
}

func (r *txRepository) SetAssetActive(ctx context.Context, assetID int64) error {
	return r.assets.SetActive(ctx, assetID)
}

func (r *txRepository) CreateLoan(ctx context.Context, loan *loans.Loan) error {
	created, err := r.loans.Create(ctx, *loan)
	if err != nil {
		return err
	}
	*loan = created
	return nil
}

func (r *txRepository) CreateFixedAsset(ctx context.Context, asset *assets.FixedAsset) error {
	created, err := r.assets.Create(ctx, *asset)
	if err != nil {
		return err
	}
	*asset = created
	return nil
}

package bank

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository encapsulates DB operations for bank accounts.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]BankAccount, error)
	Get(ctx context.Context, id int64) (BankAccount, error)
	AdjustBalance(ctx context.Context, id int64, amount decimal.Decimal, direction Direction) error
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or, inside a posting
// transaction, to the transaction itself.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const selectColumns = `id, company_id, name, ledger_code, account_number, balance, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, companyID int64) ([]BankAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM bank_accounts WHERE company_id=$1 ORDER BY name ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankAccount
	for rows.Next() {
		var b BankAccount
		var balance string
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Name, &b.LedgerCode, &b.AccountNumber, &balance, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (BankAccount, error) {
	var b BankAccount
	var balance string
	err := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM bank_accounts WHERE id=$1`, id).
		Scan(&b.ID, &b.CompanyID, &b.Name, &b.LedgerCode, &b.AccountNumber, &balance, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, shared.ErrNotFound
		}
		return BankAccount{}, err
	}
	b.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return BankAccount{}, err
	}
	return b, nil
}

// AdjustBalance applies a serialized increment so concurrent postings
// against the same account cannot lose updates.
func (r *repository) AdjustBalance(ctx context.Context, id int64, amount decimal.Decimal, direction Direction) error {
	delta := amount
	if direction == DirectionWithdraw {
		delta = amount.Neg()
	}
	cmd, err := r.db.Exec(ctx, `UPDATE bank_accounts SET balance = balance + $2, updated_at = NOW() WHERE id=$1`, id, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

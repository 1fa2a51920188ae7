package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	Insert(ctx context.Context, account Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, company_id, code, name, type, is_active, created_at, updated_at
FROM accounts WHERE company_id=$1 ORDER BY code ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, company_id, code, name, type, is_active, created_at, updated_at
FROM accounts WHERE company_id=$1 AND code=$2`, companyID, code).
		Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, is_active)
VALUES ($1,$2,$3,$4,TRUE) RETURNING id, created_at, updated_at`,
		account.CompanyID, account.Code, account.Name, account.Type)
	if err := row.Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_company_code" {
			return Account{}, shared.ErrConflict
		}
		return Account{}, err
	}
	account.IsActive = true
	return account, nil
}

package loans

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository encapsulates DB operations for loan records.
type Repository interface {
	Get(ctx context.Context, id int64) (Loan, error)
	GetByReference(ctx context.Context, companyID int64, reference string) (Loan, error)
	List(ctx context.Context, companyID int64) ([]Loan, error)
	Create(ctx context.Context, loan Loan) (Loan, error)
	// AdjustBalance applies a serialized delta; negative repays, positive
	// restores (unreconcile). Status flips to COMPLETED at zero.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error
	// HasInstallmentInMonth reports whether a posted repayment with the
	// given component already exists for the loan in the calendar month.
	HasInstallmentInMonth(ctx context.Context, loanID int64, month time.Time, kind InstallmentKind, excludeTransactionID int64) (bool, error)
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or, inside a posting
// transaction, to the transaction itself.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const loanColumns = `id, company_id, reference, principal, interest_rate, term_months, monthly_repayment, outstanding_balance, status, created_at, updated_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var l Loan
	var principal, rate, repayment, balance string
	err := row.Scan(&l.ID, &l.CompanyID, &l.Reference, &principal, &rate, &l.TermMonths, &repayment, &balance, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Loan{}, err
	}
	if l.Principal, err = decimal.NewFromString(principal); err != nil {
		return Loan{}, err
	}
	if l.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return Loan{}, err
	}
	if l.MonthlyRepayment, err = decimal.NewFromString(repayment); err != nil {
		return Loan{}, err
	}
	if l.OutstandingBalance, err = decimal.NewFromString(balance); err != nil {
		return Loan{}, err
	}
	return l, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, shared.ErrNotFound
		}
		return Loan{}, err
	}
	return loan, nil
}

func (r *repository) GetByReference(ctx context.Context, companyID int64, reference string) (Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE company_id=$1 AND reference=$2`, companyID, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, shared.ErrNotFound
		}
		return Loan{}, err
	}
	return loan, nil
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE company_id=$1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, loan Loan) (Loan, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO loans (company_id, reference, principal, interest_rate, term_months, monthly_repayment, outstanding_balance, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,'ACTIVE') RETURNING id, created_at, updated_at`,
		loan.CompanyID, loan.Reference, loan.Principal.StringFixed(2), loan.InterestRate.String(),
		loan.TermMonths, loan.MonthlyRepayment.StringFixed(2), loan.OutstandingBalance.StringFixed(2))
	if err := row.Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_loans_company_reference" {
			return Loan{}, shared.ErrConflict
		}
		return Loan{}, err
	}
	loan.Status = LoanStatusActive
	return loan, nil
}

func (r *repository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	cmd, err := r.db.Exec(ctx, `UPDATE loans
SET outstanding_balance = GREATEST(outstanding_balance + $2, 0),
    status = CASE WHEN outstanding_balance + $2 <= 0 THEN 'COMPLETED' ELSE 'ACTIVE' END,
    updated_at = NOW()
WHERE id=$1`, id, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasInstallmentInMonth queries posted transactions for the loan. The
// excludeTransactionID carve-out lets an edit re-post in its own month.
func (r *repository) HasInstallmentInMonth(ctx context.Context, loanID int64, month time.Time, kind InstallmentKind, excludeTransactionID int64) (bool, error) {
	element := "loan_repayment"
	if kind == InstallmentInterest {
		element = "loan_interest"
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM transactions
WHERE loan_id=$1 AND element=$2 AND id<>$3
  AND date_trunc('month', date) = date_trunc('month', $4::date)
  AND status <> 'pending')`, loanID, element, excludeTransactionID, month).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

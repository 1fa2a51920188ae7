package loans

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryLoanRepo struct {
	loans        map[int64]Loan
	installments map[string]int64 // "loanID/kind/YYYY-MM" -> transaction id
	nextID       int64
}

func newMemoryLoanRepo() *memoryLoanRepo {
	return &memoryLoanRepo{loans: make(map[int64]Loan), installments: make(map[string]int64)}
}

func installmentKey(loanID int64, kind InstallmentKind, month time.Time) string {
	return month.Format("2006-01") + "/" + string(kind) + "/" + decimal.NewFromInt(loanID).String()
}

func (r *memoryLoanRepo) Get(ctx context.Context, id int64) (Loan, error) {
	loan, ok := r.loans[id]
	if !ok {
		return Loan{}, shared.ErrNotFound
	}
	return loan, nil
}

func (r *memoryLoanRepo) GetByReference(ctx context.Context, companyID int64, reference string) (Loan, error) {
	for _, loan := range r.loans {
		if loan.CompanyID == companyID && loan.Reference == reference {
			return loan, nil
		}
	}
	return Loan{}, shared.ErrNotFound
}

func (r *memoryLoanRepo) List(ctx context.Context, companyID int64) ([]Loan, error) {
	var out []Loan
	for _, loan := range r.loans {
		if loan.CompanyID == companyID {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (r *memoryLoanRepo) Create(ctx context.Context, loan Loan) (Loan, error) {
	if _, err := r.GetByReference(ctx, loan.CompanyID, loan.Reference); err == nil {
		return Loan{}, shared.ErrConflict
	}
	r.nextID++
	loan.ID = r.nextID
	loan.Status = LoanStatusActive
	r.loans[loan.ID] = loan
	return loan, nil
}

func (r *memoryLoanRepo) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	loan, ok := r.loans[id]
	if !ok {
		return shared.ErrNotFound
	}
	loan.OutstandingBalance = loan.OutstandingBalance.Add(delta)
	if loan.OutstandingBalance.Sign() <= 0 {
		loan.OutstandingBalance = decimal.Zero
		loan.Status = LoanStatusCompleted
	} else {
		loan.Status = LoanStatusActive
	}
	r.loans[id] = loan
	return nil
}

func (r *memoryLoanRepo) HasInstallmentInMonth(ctx context.Context, loanID int64, month time.Time, kind InstallmentKind, excludeTransactionID int64) (bool, error) {
	txnID, ok := r.installments[installmentKey(loanID, kind, month)]
	if !ok {
		return false, nil
	}
	return txnID != excludeTransactionID, nil
}

func (r *memoryLoanRepo) recordInstallment(loanID int64, kind InstallmentKind, month time.Time, txnID int64) {
	r.installments[installmentKey(loanID, kind, month)] = txnID
}

func TestGetOrCreateOpensLoan(t *testing.T) {
	repo := newMemoryLoanRepo()
	service := NewService(repo)

	loan, err := service.GetOrCreate(context.Background(), 1, "LN-001", d("120000"), d("0.12"), 24)
	require.NoError(t, err)
	require.Equal(t, LoanStatusActive, loan.Status)
	require.True(t, loan.OutstandingBalance.Equal(d("120000")))
	require.True(t, loan.MonthlyRepayment.Equal(d("5648.56")), "repayment = %s", loan.MonthlyRepayment)

	again, err := service.GetOrCreate(context.Background(), 1, "LN-001", d("1"), decimal.Zero, 1)
	require.NoError(t, err)
	require.Equal(t, loan.ID, again.ID, "existing reference must be reused")
}

func TestCheckInstallmentPeriodRejectsSecondPrincipal(t *testing.T) {
	repo := newMemoryLoanRepo()
	service := NewService(repo)
	loan, err := service.GetOrCreate(context.Background(), 1, "LN-002", d("10000"), decimal.Zero, 10)
	require.NoError(t, err)

	march := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, service.CheckInstallmentPeriod(context.Background(), loan.ID, march, InstallmentPrincipal, 0))
	repo.recordInstallment(loan.ID, InstallmentPrincipal, march, 41)

	err = service.CheckInstallmentPeriod(context.Background(), loan.ID, march.AddDate(0, 0, 20), InstallmentPrincipal, 0)
	require.ErrorIs(t, err, ErrDuplicateInstallment)

	// The same transaction editing itself is not a duplicate.
	require.NoError(t, service.CheckInstallmentPeriod(context.Background(), loan.ID, march, InstallmentPrincipal, 41))
	// Interest in the same month is an independent component.
	require.NoError(t, service.CheckInstallmentPeriod(context.Background(), loan.ID, march, InstallmentInterest, 0))
}

func TestApplyRepaymentCompletesLoan(t *testing.T) {
	repo := newMemoryLoanRepo()
	service := NewService(repo)
	loan, err := service.GetOrCreate(context.Background(), 1, "LN-003", d("1000"), decimal.Zero, 2)
	require.NoError(t, err)

	require.NoError(t, service.ApplyRepayment(context.Background(), loan.ID, d("500")))
	mid, err := service.Get(context.Background(), loan.ID)
	require.NoError(t, err)
	require.True(t, mid.OutstandingBalance.Equal(d("500")))
	require.Equal(t, LoanStatusActive, mid.Status)

	require.NoError(t, service.ApplyRepayment(context.Background(), loan.ID, d("500")))
	done, err := service.Get(context.Background(), loan.ID)
	require.NoError(t, err)
	require.True(t, done.OutstandingBalance.IsZero())
	require.Equal(t, LoanStatusCompleted, done.Status)

	require.NoError(t, service.ReverseRepayment(context.Background(), loan.ID, d("500")))
	restored, err := service.Get(context.Background(), loan.ID)
	require.NoError(t, err)
	require.True(t, restored.OutstandingBalance.Equal(d("500")))
	require.Equal(t, LoanStatusActive, restored.Status)
}

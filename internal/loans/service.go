package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// ErrDuplicateInstallment flags a second principal- or interest-bearing
// repayment for the same loan in the same calendar month.
var ErrDuplicateInstallment = errors.New("loans: installment already recorded for this month")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Loan, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, companyID int64) ([]Loan, error) {
	return s.repo.List(ctx, companyID)
}

// GetOrCreate resolves the loan for a loan-received posting. When no loan
// exists under the reference, one is opened with the annuity repayment
// precomputed from the monthly rate.
func (s *Service) GetOrCreate(ctx context.Context, companyID int64, reference string, principal, annualRate decimal.Decimal, termMonths int) (Loan, error) {
	loan, err := s.repo.GetByReference(ctx, companyID, reference)
	if err == nil {
		return loan, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Loan{}, err
	}
	if termMonths <= 0 {
		return Loan{}, errors.New("loans: term months must be positive")
	}
	monthlyRate := annualRate.Div(decimal.NewFromInt(12))
	created, err := s.repo.Create(ctx, Loan{
		CompanyID:          companyID,
		Reference:          reference,
		Principal:          principal,
		InterestRate:       annualRate,
		TermMonths:         termMonths,
		MonthlyRepayment:   MonthlyRepayment(principal, monthlyRate, termMonths),
		OutstandingBalance: principal,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return s.repo.GetByReference(ctx, companyID, reference)
		}
		return Loan{}, fmt.Errorf("loans: create %s: %w", reference, err)
	}
	return created, nil
}

// CheckInstallmentPeriod enforces the one-installment-per-month rule for
// the given component. It is called during posting validation, before any
// write.
func (s *Service) CheckInstallmentPeriod(ctx context.Context, loanID int64, date time.Time, kind InstallmentKind, excludeTransactionID int64) error {
	exists, err := s.repo.HasInstallmentInMonth(ctx, loanID, date, kind, excludeTransactionID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateInstallment
	}
	return nil
}

// ApplyRepayment decrements the outstanding balance by the principal
// component of a posted repayment.
func (s *Service) ApplyRepayment(ctx context.Context, loanID int64, principalComponent decimal.Decimal) error {
	if principalComponent.Sign() <= 0 {
		return nil
	}
	return s.repo.AdjustBalance(ctx, loanID, principalComponent.Neg())
}

// ReverseRepayment restores the balance when a repayment is unreconciled.
func (s *Service) ReverseRepayment(ctx context.Context, loanID int64, principalComponent decimal.Decimal) error {
	if principalComponent.Sign() <= 0 {
		return nil
	}
	return s.repo.AdjustBalance(ctx, loanID, principalComponent)
}

package bank

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, companyID int64) ([]BankAccount, error) {
	return s.repo.List(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, id int64) (BankAccount, error) {
	return s.repo.Get(ctx, id)
}

// AdjustBalance moves the running balance by amount in the given direction.
func (s *Service) AdjustBalance(ctx context.Context, id int64, amount decimal.Decimal, direction Direction) error {
	if amount.Sign() < 0 {
		return errors.New("bank: adjustment amount must be non-negative")
	}
	if direction != DirectionDeposit && direction != DirectionWithdraw {
		return errors.New("bank: unknown adjustment direction")
	}
	return s.repo.AdjustBalance(ctx, id, amount, direction)
}

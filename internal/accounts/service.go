package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns the company chart, served from cache when fresh.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	if chart, ok := s.cache.Get(ctx, companyID); ok {
		return chart, nil
	}
	chart, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, companyID, chart); err != nil {
		// Cache misses are tolerable; the chart itself is authoritative.
		return chart, nil
	}
	return chart, nil
}

// Create inserts a chart account, invalidating cached charts.
func (s *Service) Create(ctx context.Context, account Account) (Account, error) {
	if account.CompanyID == 0 || account.Code == "" || account.Name == "" {
		return Account{}, errors.New("accounts: company, code and name required")
	}
	if !account.Type.Valid() {
		return Account{}, fmt.Errorf("accounts: unknown type %q", account.Type)
	}
	created, err := s.repo.Insert(ctx, account)
	if err != nil {
		return Account{}, err
	}
	_ = s.cache.Bump(ctx)
	return created, nil
}

// Ensure returns the well-known ledger, creating it when absent. This is
// the single self-healing step allowed before a posting fails on missing
// reference data.
func (s *Service) Ensure(ctx context.Context, companyID int64, spec WellKnownSpec) (Account, error) {
	account, err := s.repo.GetByCode(ctx, companyID, spec.Code)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Account{}, err
	}
	created, err := s.repo.Insert(ctx, Account{
		CompanyID: companyID,
		Code:      spec.Code,
		Name:      spec.Name,
		Type:      spec.Type,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			// Raced with another posting; the row exists now.
			return s.repo.GetByCode(ctx, companyID, spec.Code)
		}
		return Account{}, fmt.Errorf("accounts: ensure %s: %w", spec.Code, err)
	}
	_ = s.cache.Bump(ctx)
	return created, nil
}

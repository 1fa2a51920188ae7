package assets

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAssetDisposed blocks postings against an already-disposed asset.
var ErrAssetDisposed = errors.New("assets: asset already disposed")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (FixedAsset, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, companyID int64) ([]FixedAsset, error) {
	return s.repo.List(ctx, companyID)
}

func (s *Service) ListActive(ctx context.Context, companyID int64) ([]FixedAsset, error) {
	return s.repo.ListActive(ctx, companyID)
}

// Register opens the acquisition record for an asset-purchase posting.
// Cost is the VAT-net amount of the purchase.
func (s *Service) Register(ctx context.Context, companyID int64, description string, cost decimal.Decimal, purchaseDate time.Time, usefulLifeYears int) (FixedAsset, error) {
	if usefulLifeYears <= 0 {
		return FixedAsset{}, errors.New("assets: useful life years must be positive")
	}
	if cost.Sign() <= 0 {
		return FixedAsset{}, errors.New("assets: cost must be positive")
	}
	return s.repo.Create(ctx, FixedAsset{
		CompanyID:       companyID,
		Description:     description,
		Cost:            cost,
		PurchaseDate:    purchaseDate,
		UsefulLifeYears: usefulLifeYears,
	})
}

// ApplyDepreciation increments accumulated depreciation for a posted
// depreciation charge.
func (s *Service) ApplyDepreciation(ctx context.Context, assetID int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return nil
	}
	return s.repo.AdjustAccumulated(ctx, assetID, amount)
}

// ReverseDepreciation rolls the accumulated figure back on unreconcile.
func (s *Service) ReverseDepreciation(ctx context.Context, assetID int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return nil
	}
	return s.repo.AdjustAccumulated(ctx, assetID, amount.Neg())
}

// MarkDisposed flips the asset to disposed as part of a disposal posting.
func (s *Service) MarkDisposed(ctx context.Context, assetID int64, disposalDate time.Time) error {
	asset, err := s.repo.Get(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.Status == AssetStatusDisposed {
		return ErrAssetDisposed
	}
	return s.repo.SetDisposed(ctx, assetID, &disposalDate)
}

// Reactivate reverses a disposal on unreconcile.
func (s *Service) Reactivate(ctx context.Context, assetID int64) error {
	return s.repo.SetActive(ctx, assetID)
}

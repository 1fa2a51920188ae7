package assets

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus enumerates fixed-asset lifecycle values.
type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "ACTIVE"
	AssetStatusDisposed AssetStatus = "DISPOSED"
)

// FixedAsset is an acquisition record. Cost is net of VAT; accumulated
// depreciation never exceeds cost.
type FixedAsset struct {
	ID                      int64
	CompanyID               int64
	Description             string
	Cost                    decimal.Decimal
	PurchaseDate            time.Time
	UsefulLifeYears         int
	AccumulatedDepreciation decimal.Decimal
	Status                  AssetStatus
	DisposalDate            *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// NetBookValue is cost minus accumulated depreciation.
func (a FixedAsset) NetBookValue() decimal.Decimal {
	return a.Cost.Sub(a.AccumulatedDepreciation)
}

// FullyDepreciated reports whether further depreciation would exceed cost.
func (a FixedAsset) FullyDepreciated() bool {
	return a.AccumulatedDepreciation.GreaterThanOrEqual(a.Cost)
}

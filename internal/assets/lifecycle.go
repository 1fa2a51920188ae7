package assets

import "github.com/shopspring/decimal"

var twelve = decimal.NewFromInt(12)

// MonthlyDepreciation is the fixed straight-line monthly charge derived
// from the acquisition record: cost / life / 12. It does not depend on
// calendar time elapsed at the posting moment.
func MonthlyDepreciation(cost decimal.Decimal, usefulLifeYears int) decimal.Decimal {
	if usefulLifeYears <= 0 {
		return decimal.Zero
	}
	return cost.Div(decimal.NewFromInt(int64(usefulLifeYears))).Div(twelve).Round(2)
}

// DepreciationCharge caps the monthly charge so accumulated depreciation
// never exceeds cost. Returns zero for a fully depreciated asset.
func DepreciationCharge(asset FixedAsset) decimal.Decimal {
	monthly := MonthlyDepreciation(asset.Cost, asset.UsefulLifeYears)
	remaining := asset.Cost.Sub(asset.AccumulatedDepreciation)
	if remaining.Sign() <= 0 {
		return decimal.Zero
	}
	if monthly.GreaterThan(remaining) {
		return remaining
	}
	return monthly
}

// DisposalResult carries the derecognition arithmetic for one disposal.
type DisposalResult struct {
	NetBookValue decimal.Decimal
	GainLoss     decimal.Decimal
}

// Gain reports a positive disposal outcome.
func (r DisposalResult) Gain() bool { return r.GainLoss.Sign() > 0 }

// Loss reports a negative disposal outcome.
func (r DisposalResult) Loss() bool { return r.GainLoss.Sign() < 0 }

// Disposal computes net book value and gain or loss against proceeds.
func Disposal(asset FixedAsset, proceeds decimal.Decimal) DisposalResult {
	nbv := asset.NetBookValue()
	return DisposalResult{
		NetBookValue: nbv,
		GainLoss:     proceeds.Sub(nbv).Round(2),
	}
}

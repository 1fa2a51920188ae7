package assets

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyDepreciationStraightLine(t *testing.T) {
	monthly := MonthlyDepreciation(d("50000"), 5)
	assert.True(t, monthly.Equal(d("833.33")), "monthly = %s", monthly)
}

func TestMonthlyDepreciationZeroLife(t *testing.T) {
	assert.True(t, MonthlyDepreciation(d("50000"), 0).IsZero())
}

func TestDepreciationChargeCapsAtCost(t *testing.T) {
	asset := FixedAsset{Cost: d("1000"), UsefulLifeYears: 1, AccumulatedDepreciation: d("950")}
	charge := DepreciationCharge(asset)
	// Monthly would be 83.33 but only 50 remains.
	assert.True(t, charge.Equal(d("50")), "charge = %s", charge)

	asset.AccumulatedDepreciation = d("1000")
	assert.True(t, DepreciationCharge(asset).IsZero())
}

func TestDisposalLoss(t *testing.T) {
	asset := FixedAsset{Cost: d("50000"), AccumulatedDepreciation: d("20000")}
	result := Disposal(asset, d("25000"))
	assert.True(t, result.NetBookValue.Equal(d("30000")))
	assert.True(t, result.GainLoss.Equal(d("-5000")), "gain/loss = %s", result.GainLoss)
	assert.True(t, result.Loss())
	assert.False(t, result.Gain())
}

func TestDisposalGain(t *testing.T) {
	asset := FixedAsset{Cost: d("50000"), AccumulatedDepreciation: d("45000")}
	result := Disposal(asset, d("8000"))
	assert.True(t, result.GainLoss.Equal(d("3000")))
	assert.True(t, result.Gain())
}

func TestDisposalBreakEven(t *testing.T) {
	asset := FixedAsset{Cost: d("50000"), AccumulatedDepreciation: d("20000")}
	result := Disposal(asset, d("30000"))
	assert.True(t, result.GainLoss.IsZero())
	assert.False(t, result.Gain())
	assert.False(t, result.Loss())
}

package posting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocateExpenseSplitInclusive(t *testing.T) {
	lines := []SplitLine{
		{AccountID: 10, Amount: d("575"), VATRate: d("15"), Description: "materials"},
		{AccountID: 11, Amount: d("575"), VATRate: d("15"), Description: "freight"},
	}
	alloc, err := Allocate(ElementExpense, d("1150"), lines, true, 1, 99)
	require.NoError(t, err)

	require.Len(t, alloc.Entries, 4, "two line legs, one VAT leg, one source leg")
	assert.True(t, alloc.CashTotal.Equal(d("1150")), "cash total = %s", alloc.CashTotal)
	assert.True(t, alloc.BaseTotal.Equal(d("1000")))
	assert.True(t, alloc.VATTotal.Equal(d("150")))
	assert.True(t, Balanced(alloc.Entries))

	source := alloc.Entries[len(alloc.Entries)-1]
	assert.Equal(t, int64(1), source.AccountID)
	assert.True(t, source.Credit.Equal(alloc.CashTotal), "expense split credits the source leg")
}

func TestAllocateRecomputesCashFromLinesExclusive(t *testing.T) {
	// Exclusive VAT: cash moved exceeds the declared (net) total; the
	// source leg must carry the recomputed amount, not the declared one.
	lines := []SplitLine{
		{AccountID: 10, Amount: d("1000"), VATRate: d("15")},
	}
	alloc, err := Allocate(ElementExpense, d("1000"), lines, false, 1, 99)
	require.NoError(t, err)
	assert.True(t, alloc.CashTotal.Equal(d("1150")), "cash total = %s", alloc.CashTotal)
	assert.True(t, Balanced(alloc.Entries))
}

func TestAllocateIncomeSplitsCreditSide(t *testing.T) {
	lines := []SplitLine{
		{AccountID: 20, Amount: d("230"), VATRate: d("15")},
		{AccountID: 21, Amount: d("115"), VATRate: d("15")},
	}
	alloc, err := Allocate(ElementIncome, d("345"), lines, true, 1, 98)
	require.NoError(t, err)
	require.Len(t, alloc.Entries, 4)
	assert.True(t, Balanced(alloc.Entries))

	source := alloc.Entries[len(alloc.Entries)-1]
	assert.True(t, source.Debit.Equal(alloc.CashTotal), "income split debits the source leg")
	for _, e := range alloc.Entries[:len(alloc.Entries)-1] {
		assert.True(t, e.Debit.IsZero(), "line legs sit on the credit side")
	}
}

func TestAllocateMixedRates(t *testing.T) {
	lines := []SplitLine{
		{AccountID: 10, Amount: d("115"), VATRate: d("15")},
		{AccountID: 11, Amount: d("100"), VATRate: decimal.Zero},
	}
	alloc, err := Allocate(ElementExpense, d("215"), lines, true, 1, 99)
	require.NoError(t, err)
	assert.True(t, alloc.VATTotal.Equal(d("15")))
	assert.True(t, alloc.CashTotal.Equal(d("215")))
	assert.True(t, Balanced(alloc.Entries))
}

func TestAllocateNoVATOmitsVATLeg(t *testing.T) {
	lines := []SplitLine{
		{AccountID: 10, Amount: d("100"), VATRate: decimal.Zero},
	}
	alloc, err := Allocate(ElementExpense, d("100"), lines, true, 1, 0)
	require.NoError(t, err)
	require.Len(t, alloc.Entries, 2)
}

func TestAllocateRejectsDrift(t *testing.T) {
	lines := []SplitLine{
		{AccountID: 10, Amount: d("100")},
		{AccountID: 11, Amount: d("100")},
	}
	_, err := Allocate(ElementExpense, d("200.02"), lines, true, 1, 99)
	assert.ErrorIs(t, err, ErrUnbalancedSplit)
	assert.ErrorIs(t, err, ErrValidation)

	// One cent of rounding drift is tolerated.
	_, err = Allocate(ElementExpense, d("200.01"), lines, true, 1, 99)
	assert.NoError(t, err)
}

func TestAllocateRejectsMissingLineAccount(t *testing.T) {
	lines := []SplitLine{{AccountID: 0, Amount: d("100")}}
	_, err := Allocate(ElementExpense, d("100"), lines, true, 1, 99)
	assert.ErrorIs(t, err, ErrSplitLineAccount)
}

func TestAllocateRejectsNonSplitElement(t *testing.T) {
	_, err := Allocate(ElementLoanRepayment, d("100"), []SplitLine{{AccountID: 1, Amount: d("100")}}, true, 1, 99)
	assert.ErrorIs(t, err, ErrValidation)
}

package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElementRoundTrip(t *testing.T) {
	for _, e := range Elements {
		parsed, err := ParseElement(string(e))
		assert.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
	_, err := ParseElement("petty_cash")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEveryElementHasAccountTypes(t *testing.T) {
	for _, e := range Elements {
		assert.NotEmpty(t, string(e.DebitType()), "element %s needs a debit type", e)
		assert.NotEmpty(t, e.CreditTypes(), "element %s needs credit types", e)
	}
}

func TestVATExemptElements(t *testing.T) {
	exempt := map[Element]bool{
		ElementLoanReceived:  true,
		ElementLoanRepayment: true,
		ElementLoanInterest:  true,
		ElementDepreciation:  true,
		ElementAssetDisposal: true,
	}
	for _, e := range Elements {
		assert.Equal(t, exempt[e], e.VATExempt(), "element %s", e)
	}
}

func TestSplitSides(t *testing.T) {
	assert.Equal(t, SplitDebit, ElementExpense.SplitSide())
	assert.Equal(t, SplitDebit, ElementAssetPurchase.SplitSide())
	assert.Equal(t, SplitCredit, ElementIncome.SplitSide())
	assert.Equal(t, SplitCredit, ElementReceipt.SplitSide())
	assert.Equal(t, SplitNone, ElementLoanRepayment.SplitSide())
	assert.Equal(t, SplitNone, ElementDepreciation.SplitSide())
}

func TestOnlyDepreciationSkipsBankBalance(t *testing.T) {
	for _, e := range Elements {
		assert.Equal(t, e != ElementDepreciation, e.MovesBankBalance(), "element %s", e)
	}
}

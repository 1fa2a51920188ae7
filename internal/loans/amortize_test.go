package loans

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyRepaymentAnnuity(t *testing.T) {
	// 120000 at 12% annual (1% monthly) over 24 months.
	payment := MonthlyRepayment(d("120000"), d("0.01"), 24)
	assert.True(t, payment.Equal(d("5648.56")), "payment = %s", payment)
}

func TestMonthlyRepaymentZeroRate(t *testing.T) {
	payment := MonthlyRepayment(d("120000"), decimal.Zero, 24)
	assert.True(t, payment.Equal(d("5000.00")), "payment = %s", payment)
}

func TestMonthlyRepaymentZeroTerm(t *testing.T) {
	assert.True(t, MonthlyRepayment(d("120000"), d("0.01"), 0).IsZero())
}

func TestMonthlyInterest(t *testing.T) {
	interest := MonthlyInterest(d("100000"), d("0.12"))
	assert.True(t, interest.Equal(d("1000.00")), "interest = %s", interest)
}

func TestMonthlyRepaymentCoversPrincipal(t *testing.T) {
	principal := d("50000")
	payment := MonthlyRepayment(principal, d("0.005"), 36)
	total := payment.Mul(decimal.NewFromInt(36))
	assert.True(t, total.GreaterThan(principal), "payments %s must exceed principal with interest", total)
}

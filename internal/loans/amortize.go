package loans

import "github.com/shopspring/decimal"

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// MonthlyRepayment computes the level annuity payment for a loan. The
// zero-rate case is the annuity formula's removable singularity and is
// handled as a straight division rather than left to blow up.
func MonthlyRepayment(principal, monthlyRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}
	term := decimal.NewFromInt(int64(termMonths))
	if monthlyRate.IsZero() {
		return principal.Div(term).Round(2)
	}
	// P * r / (1 - (1+r)^-n)
	growth := one.Add(monthlyRate).Pow(term)
	payment := principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(one))
	return payment.Round(2)
}

// MonthlyInterest returns one month of interest on the outstanding
// balance at the given annual rate, used to prefill interest-only
// postings.
func MonthlyInterest(outstandingBalance, annualRate decimal.Decimal) decimal.Decimal {
	return outstandingBalance.Mul(annualRate).Div(twelve).Round(2)
}

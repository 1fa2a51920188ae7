// Package money implements VAT arithmetic for the posting engine. All
// amounts are decimal and rounded to cents; net and VAT components always
// recombine to the original total under the inclusive convention.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CentTolerance is the maximum drift allowed between a declared total and
// an amount recomputed from split lines.
var CentTolerance = decimal.New(1, -2)

// Split divides amount into net and VAT components. When inclusive, the
// amount already contains tax: net = amount*100/(100+rate) and vat is the
// remainder, so net+vat == amount exactly. When exclusive, the amount is
// the net and vat = amount*rate/100.
func Split(amount, rate decimal.Decimal, inclusive bool) (net, vat decimal.Decimal) {
	amount = amount.Round(2)
	if rate.Sign() <= 0 {
		return amount, decimal.Zero
	}
	if inclusive {
		net = amount.Mul(hundred).Div(hundred.Add(rate)).Round(2)
		vat = amount.Sub(net)
		return net, vat
	}
	vat = amount.Mul(rate).Div(hundred).Round(2)
	return amount, vat
}

// Total returns the gross amount for a net/vat pair.
func Total(net, vat decimal.Decimal) decimal.Decimal {
	return net.Add(vat)
}

// WithinTolerance reports whether a and b differ by at most a cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(CentTolerance) <= 0
}

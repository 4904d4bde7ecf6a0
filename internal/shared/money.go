package shared

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places stored for money columns.
const MoneyScale = 2

// MaxAmount is the largest value a NUMERIC(14,2) money column holds.
var MaxAmount = decimal.New(99999999999999, -MoneyScale)

// Exponent window accepted when parsing amounts. Rounding a decimal with a
// large exponent allocates a 10^exponent integer, so wider values are
// rejected before any arithmetic.
const (
	minAmountExponent = -10
	maxAmountExponent = 15
)

// ParseAmount parses text as a decimal amount. It reports false for
// malformed input and for exponents outside the accepted window.
func ParseAmount(text string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(text)
	if err != nil || !exponentInRange(d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// AmountInRange reports whether d, rounded to MoneyScale, fits a money
// column.
func AmountInRange(d decimal.Decimal) bool {
	if !exponentInRange(d) {
		return false
	}
	return d.Round(MoneyScale).Abs().LessThanOrEqual(MaxAmount)
}

func exponentInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= minAmountExponent && exp <= maxAmountExponent
}

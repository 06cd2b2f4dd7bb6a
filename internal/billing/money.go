package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits for persisted and displayed
// amounts.
const MoneyPlaces = 2

// Money rounds v half away from zero to two fraction digits. The float is
// first converted through its shortest decimal representation, so 1.005
// rounds to 1.01. Non-finite values map to zero.
func Money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(MoneyPlaces)
}

// FormatMoney renders v with exactly two fraction digits.
func FormatMoney(v float64) string {
	return Money(v).StringFixed(MoneyPlaces)
}

// ParseMoney reads a two-digit amount previously produced by FormatMoney.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(MoneyPlaces), nil
}

// InvoiceTotal sums the total due of several copiers. Each copier's total
// is rounded before summation, so the result can differ by a cent from
// rounding the grand total once.
func InvoiceTotal(bs ...Breakdown) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range bs {
		sum = sum.Add(Money(b.TotalDue))
	}
	return sum
}

package shared

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "GH₵"

// FormatCedi renders an amount with two decimals, e.g. GH₵12.50 or -GH₵3.00.
func FormatCedi(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}

// RoundCedi rounds an amount half away from zero to the nearest pesewa.
func RoundCedi(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

package utils

import "github.com/shopspring/decimal"

// FormatMoney renders an amount rounded half-up to two fraction digits with the currency symbol,
// e.g. "£51.41". Rounding happens here only; stored amounts keep full precision.
func FormatMoney(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

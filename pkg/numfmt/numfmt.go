// Package numfmt renders display previews for the number formats that
// formatting commands can apply. Currency rendering goes through go-money so
// ISO-4217 symbols and fraction digits are respected; percent and
// fixed-decimal rendering go through shopspring/decimal.
package numfmt

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a currency code is missing or unknown.
const DefaultCurrency = "USD"

// Currency renders a value in the given ISO-4217 currency,
// e.g. (1234.56, "USD") -> "$1,234.56". Unknown codes fall back to USD.
func Currency(value float64, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		currency = money.GetCurrency(DefaultCurrency)
	}

	// Convert to minor units using decimal for precision
	d := decimal.NewFromFloat(value)
	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := d.Mul(multiplier).Round(0).IntPart()

	return money.New(cents, currency.Code).Display()
}

// Percent renders a ratio as a percentage, e.g. (0.125, 2) -> "12.50%".
func Percent(value float64, places int32) string {
	d := decimal.NewFromFloat(value).Mul(decimal.NewFromInt(100))
	return d.StringFixed(places) + "%"
}

// Fixed renders a value with a fixed number of decimal places,
// e.g. (1234.567, 2) -> "1234.57".
func Fixed(value float64, places int32) string {
	return decimal.NewFromFloat(value).StringFixed(places)
}

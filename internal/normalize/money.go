// Package normalize turns raw cell and text fragments into typed values.
package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/order-tracker/constants"
)

var reFirstNumber = regexp.MustCompile(`[\d.]+`)

// ParseAmount parses a currency cell such as "¥1,299.00".
// It strips the currency glyph and thousands separators; when the rest is
// not a number it falls back to the first numeric run in the cell.
func ParseAmount(cell string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(cell, constants.CurrencyGlyph, "")
	s = strings.ReplaceAll(s, constants.FullwidthCurrencyGlyph, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	m := reFirstNumber.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// UnitPrice returns amount / qty rounded to 2 places. qty <= 0 yields amount.
func UnitPrice(amount decimal.Decimal, qty int) decimal.Decimal {
	if qty <= 0 {
		return amount
	}
	return amount.Div(decimal.NewFromInt(int64(qty))).Round(2)
}

// ParseNumber coerces a stored cell to a number; anything unparseable is empty.
func ParseNumber(cell string) decimal.NullDecimal {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

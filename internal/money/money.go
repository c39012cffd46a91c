// Package money converts between decimal amounts used on the wire and
// the int64 hundredths stored in the database.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept in storage.
const Scale = 2

// MaxAmount bounds a single amount. The running balance is checked separately
// by the ledger, which refuses any write that would overflow int64.
var MaxAmount = decimal.New(1, 13) // 10,000,000,000,000

var (
	ErrNotPositive   = errors.New("amount must be positive")
	ErrTooPrecise    = fmt.Errorf("amount must have at most %d decimal places", Scale)
	ErrTooLarge      = errors.New("amount too large")
	ErrInvalidFormat = errors.New("invalid amount format")
)

// ToCent converts a positive decimal with at most two fractional digits to hundredths.
func ToCent(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrNotPositive
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return 0, ErrTooLarge
	}
	shifted := d.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	return shifted.IntPart(), nil
}

// Parse reads a decimal string such as "12.50" and returns hundredths.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return ToCent(d)
}

// FromCent converts stored hundredths back to a decimal. Negative values are kept.
func FromCent(cent int64) decimal.Decimal {
	return decimal.New(cent, -Scale)
}

// Format renders hundredths with exactly two fractional digits.
func Format(cent int64) string {
	return FromCent(cent).StringFixed(Scale)
}

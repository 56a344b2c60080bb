// Package money converts between decimal major-unit amounts and the int64
// minor units stored in the ledger.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of decimal places held in minor units.
const MinorUnitScale = 2

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

var (
	// ErrNonPositive is returned when an amount does not round to at least one minor unit.
	ErrNonPositive = errors.New("amount must be greater than zero")
	// ErrTooLarge is returned when an amount does not fit the int64 minor-unit range.
	ErrTooLarge = errors.New("amount exceeds the supported range")
)

// ToMinor converts a major-unit amount to minor units, rounding half away from zero.
// The result wraps outside the int64 range; callers taking user input use PositiveMinor.
func ToMinor(amount decimal.Decimal) int64 {
	return roundedMinor(amount).IntPart()
}

// PositiveMinor converts amount and rejects anything outside [1, MaxInt64] minor units.
func PositiveMinor(amount decimal.Decimal) (int64, error) {
	minor := roundedMinor(amount)
	if minor.GreaterThan(maxMinor) {
		return 0, ErrTooLarge
	}
	if !minor.IsPositive() {
		return 0, ErrNonPositive
	}
	return minor.IntPart(), nil
}

func roundedMinor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(hundred).Round(0)
}

// FromMinor converts stored minor units back to a major-unit decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitScale)
}

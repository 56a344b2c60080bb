package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[string]int64{
		"1000":    100000,
		"300":     30000,
		"0.015":   2,
		"0.014":   1,
		"10.005":  1001,
		"-0.005":  -1,
		"0.004":   0,
		"1234.56": 123456,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ToMinor(decimal.RequireFromString(raw)), raw)
	}
}

func TestPositiveMinorRejectsSubMinorAmounts(t *testing.T) {
	_, err := PositiveMinor(decimal.RequireFromString("0.004"))
	require.ErrorIs(t, err, ErrNonPositive)

	_, err = PositiveMinor(decimal.RequireFromString("-5"))
	require.ErrorIs(t, err, ErrNonPositive)

	minor, err := PositiveMinor(decimal.RequireFromString("0.005"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), minor)
}

func TestPositiveMinorRejectsAmountsBeyondInt64(t *testing.T) {
	// 2^64 + 1 minor units would wrap to 1 if truncated.
	_, err := PositiveMinor(decimal.RequireFromString("184467440737095516.17"))
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = PositiveMinor(decimal.RequireFromString("92233720368547758.08"))
	require.ErrorIs(t, err, ErrTooLarge)

	minor, err := PositiveMinor(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), minor)
}

func TestFromMinor(t *testing.T) {
	assert.True(t, FromMinor(70000).Equal(decimal.NewFromInt(700)))
	assert.Equal(t, "12.34", FromMinor(1234).StringFixed(2))
}

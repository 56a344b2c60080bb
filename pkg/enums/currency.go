package enums

import "strings"

// Currency is an ISO 4217 code accepted for wallet deposits.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

var currencies = newSet("currency", CurrencyINR, CurrencyUSD)

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return currencies.has(c) }

// ParseCurrency is case-insensitive and ignores surrounding blanks.
func ParseCurrency(value string) (Currency, error) {
	return currencies.parse(strings.ToUpper(strings.TrimSpace(value)))
}

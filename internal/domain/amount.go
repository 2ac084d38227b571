package domain

import "github.com/shopspring/decimal"

// Amount is an arbitrary-precision token quantity. It marshals to a JSON string.
type Amount = decimal.Decimal

// ParseAmount parses a decimal string.
func ParseAmount(s string) (Amount, error) {
	return decimal.NewFromString(s)
}

// MustAmount parses s and panics on error. Intended for constants and tests.
func MustAmount(s string) Amount {
	return decimal.RequireFromString(s)
}

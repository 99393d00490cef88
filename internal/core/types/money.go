// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors; all revenue, fee and
// proration arithmetic in this codebase goes through this type.
type Money = decimal.Decimal

// NullMoney is a nullable Money for optional columns (itemized revenue
// breakdowns that upstream feeds may or may not provide).
type NullMoney = decimal.NullDecimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// NewMoneyFromInt creates a Money value from whole units.
func NewMoneyFromInt(n int64) Money {
	return decimal.NewFromInt(n)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// SomeMoney wraps a Money into a valid NullMoney.
func SomeMoney(m Money) NullMoney {
	return decimal.NullDecimal{Decimal: m, Valid: true}
}

// NoMoney returns an invalid (NULL) NullMoney.
func NoMoney() NullMoney {
	return decimal.NullDecimal{}
}

// Package core provides the account and installment model, the year
// calendar grid and money handling.
//
// This file contains the Money type used for installment amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. It is written to JSON as a bare number
// so records stay compatible with json-server style stores.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MustMoney parses s and panics on failure. Meant for literals and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts user input into Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects negative values. An empty string is zero.
//
// Examples:
//
//	ParseMoney("250.5") -> 250.5
//	ParseMoney("12,30") -> 12.3
//	ParseMoney("")      -> 0
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{Decimal: d}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Equal reports whether both amounts have the same value, ignoring scale.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Format renders the amount with two decimals, e.g. "350.50".
func (m Money) Format() string {
	return m.Decimal.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

// Package types provides common type aliases and monetary utilities.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// Currency amounts carry 2 fractional digits, exchange rates 4.
type Money = decimal.Decimal

const (
	// MoneyScale is the number of fractional digits for currency amounts.
	MoneyScale int32 = 2

	// RateScale is the number of fractional digits for exchange rates.
	RateScale int32 = 4
)

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

// RoundMoney rounds to 2 fractional digits (half away from zero).
func RoundMoney(d decimal.Decimal) Money {
	return d.Round(MoneyScale)
}

// RoundRate rounds an exchange rate to 4 fractional digits.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}

var hundred = decimal.NewFromInt(100)

// ApplyPercent computes amount * rate / 100 rounded to money scale.
// Rates are percentages with up to 2 fractional digits (e.g. 10, 7.25).
func ApplyPercent(amount Money, rate decimal.Decimal) Money {
	return RoundMoney(amount.Mul(rate).Div(hundred))
}

// ValidPercent reports whether rate lies in [0, 100].
func ValidPercent(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// Quantity is an invoice line quantity stored as a scaled integer with
// 4 fractional digits. It survives the round trip through Postgres BIGINT
// and JSON without accumulating float error.
type Quantity int64

// QuantityScale is the scaling factor: one unit equals 10_000.
const QuantityScale int64 = 10_000

// quantityExp is the decimal exponent matching QuantityScale.
const quantityExp int32 = -4

func NewQuantityFromFloat64(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

func NewQuantityFromInt64Scaled(v int64) Quantity { return Quantity(v) }

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

// Decimal returns the exact decimal value for line total math.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), quantityExp)
}

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// String formats the quantity with all 4 fractional digits, e.g. "2.5000".
func (q Quantity) String() string {
	return q.Decimal().StringFixed(-quantityExp)
}

// MarshalJSON emits a plain JSON number so API clients see "2.5000",
// never a quoted string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a number or a quoted string. Digits beyond the
// 4th fractional place are truncated, not rounded.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	token := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &token); err != nil {
			return err
		}
	}

	parsed, err := parseQuantity(token)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func parseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}

	scaled := d.Shift(-quantityExp).Truncate(0)
	return Quantity(scaled.IntPart()), nil
}

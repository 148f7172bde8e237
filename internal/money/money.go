// Package money provides fixed two-digit monetary values for lab billing.
//
// Every Money value is rounded to two fractional digits with round-half-even
// (banker's rounding) whenever it is produced, so sums of Money are exact.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits carried by Money.
const Places = 2

// Money is a monetary amount with exactly two fractional digits.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{d: decimal.Zero}

func round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Places)
}

// FromDecimal rounds d to two places.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: round(d)}
}

// FromCents builds an amount from minor units.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Places)}
}

// FromString parses a decimal amount. Blank input is treated as zero.
func FromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustParse is FromString for constants and tests.
func MustParse(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// OrZero returns *m, or Zero when m is nil.
func OrZero(m *Money) Money {
	if m == nil {
		return Zero
	}
	return *m
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// ApplyRate returns m * (1 + r), rounded to two places.
func (m Money) ApplyRate(r Rate) Money {
	return FromDecimal(m.d.Mul(decimal.NewFromInt(1).Add(r.d)))
}

// Portion returns m * r, rounded to two places.
func (m Money) Portion(r Rate) Money {
	return FromDecimal(m.d.Mul(r.d))
}

// Cmp compares m and o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports whether both amounts are the same.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// IsZero reports whether m is zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// String renders the amount with exactly two fractional digits.
func (m Money) String() string { return m.d.StringFixedBank(Places) }

// Sum adds all amounts.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MarshalJSON encodes the amount as a string to avoid float conversion.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "null" {
		*m = Zero
		return nil
	}
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rate is a fractional multiplier, 0.14 meaning fourteen percent.
type Rate struct {
	d decimal.Decimal
}

// ZeroRate applies no surcharge.
var ZeroRate = Rate{d: decimal.Zero}

// NewRate wraps a fractional rate.
func NewRate(d decimal.Decimal) Rate { return Rate{d: d} }

// RateFromPercent converts a percentage such as 14.00 into 0.14.
func RateFromPercent(p decimal.Decimal) Rate {
	return Rate{d: p.Div(hundred)}
}

// ParseRate parses a fractional rate. Blank input is ZeroRate.
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroRate, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroRate, fmt.Errorf("money: parse rate %q: %w", s, err)
	}
	return Rate{d: d}, nil
}

// Decimal exposes the underlying value.
func (r Rate) Decimal() decimal.Decimal { return r.d }

// IsNegative reports whether r lowers prices.
func (r Rate) IsNegative() bool { return r.d.IsNegative() }

// Percent renders the rate as a two-digit percentage.
func (r Rate) Percent() Percent { return NewPercent(r.d.Mul(hundred)) }

func (r Rate) String() string { return r.d.String() }

// Scan implements sql.Scanner.
func (r *Rate) Scan(src any) error {
	if src == nil {
		*r = ZeroRate
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan rate: %w", err)
	}
	r.d = d
	return nil
}

// Value implements driver.Valuer.
func (r Rate) Value() (driver.Value, error) { return r.d.String(), nil }

// Percent is a percentage with two fractional digits, e.g. a member discount.
type Percent struct {
	d decimal.Decimal
}

// ZeroPercent is 0.00 %.
var ZeroPercent = Percent{d: decimal.Zero}

// NewPercent rounds p to two places.
func NewPercent(p decimal.Decimal) Percent { return Percent{d: p.RoundBank(Places)} }

// ParsePercent parses a percentage. Blank input is ZeroPercent.
func ParsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return ZeroPercent, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroPercent, fmt.Errorf("money: parse percent %q: %w", s, err)
	}
	return NewPercent(d), nil
}

// Rate converts the percentage into a fractional Rate.
func (p Percent) Rate() Rate { return RateFromPercent(p.d) }

// Decimal exposes the underlying value.
func (p Percent) Decimal() decimal.Decimal { return p.d }

// Equal reports whether both percentages match.
func (p Percent) Equal(o Percent) bool { return p.d.Equal(o.d) }

// IsZero reports whether p is 0.00 %.
func (p Percent) IsZero() bool { return p.d.IsZero() }

func (p Percent) String() string { return p.d.StringFixedBank(Places) }

// MarshalJSON encodes the percentage as a string.
func (p Percent) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

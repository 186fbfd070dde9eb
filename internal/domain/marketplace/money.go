package marketplace

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is a non-negative amount rounded half away from zero to two decimal places.
// The zero value is a valid zero amount.
type Money struct {
	amount decimal.Decimal
}

// NewMoney rejects negative amounts and rounds d to two decimal places.
func NewMoney(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, invalid("Money.New", ErrInvalidMoney, fmt.Sprintf("amount must be >= 0 (got %s)", d.String()))
	}
	return Money{amount: d.Round(moneyScale)}, nil
}

// ParseMoney parses a decimal string such as "12.345".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, invalid("Money.Parse", ErrInvalidMoney, fmt.Sprintf("invalid amount %q", s))
	}
	return NewMoney(d)
}

// MoneyFromCents builds an exact amount from minor units.
func MoneyFromCents(cents int64) (Money, error) {
	return NewMoney(decimal.New(cents, -moneyScale))
}

// MustMoney is ParseMoney for literals known to be valid.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{amount: decimal.Zero} }

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) String() string { return m.amount.StringFixed(moneyScale) }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) Cmp(o Money) int { return m.amount.Cmp(o.amount) }

func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }

func (m Money) LessThan(o Money) bool { return m.amount.LessThan(o.amount) }

func (m Money) GreaterThan(o Money) bool { return m.amount.GreaterThan(o.amount) }

// Add never fails: the sum of two non-negative amounts is non-negative.
func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount).Round(moneyScale)}
}

// Sub fails with ErrNegativeMoney when o exceeds m.
func (m Money) Sub(o Money) (Money, error) {
	if o.amount.GreaterThan(m.amount) {
		return Money{}, invalid("Money.Sub", ErrNegativeMoney, fmt.Sprintf("cannot subtract %s from %s", o, m))
	}
	return Money{amount: m.amount.Sub(o.amount).Round(moneyScale)}, nil
}

// Times multiplies by a quantity; the result stays non-negative.
func (m Money) Times(q Quantity) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(q.Int()))).Round(moneyScale)}
}

// SumMoney adds amounts left to right.
func SumMoney(ms ...Money) Money {
	out := ZeroMoney()
	for _, m := range ms {
		out = out.Add(m)
	}
	return out
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*m = ZeroMoney()
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(moneyScale), nil
}

func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

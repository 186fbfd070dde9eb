package marketplace

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Quantity is a strictly positive item count. The zero value is invalid and
// reported by IsZero; constructors never produce it.
type Quantity struct {
	n int
}

func NewQuantity(n int) (Quantity, error) {
	if n <= 0 {
		return Quantity{}, invalid("Quantity.New", ErrInvalidQuantity, fmt.Sprintf("quantity must be > 0 (got %d)", n))
	}
	return Quantity{n: n}, nil
}

// MustQuantity is NewQuantity for literals known to be valid.
func MustQuantity(n int) Quantity {
	q, err := NewQuantity(n)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Int() int { return q.n }

func (q Quantity) IsZero() bool { return q.n <= 0 }

func (q Quantity) String() string { return fmt.Sprintf("%d", q.n) }

func (q Quantity) Add(o Quantity) Quantity { return Quantity{n: q.n + o.n} }

func (q Quantity) MarshalJSON() ([]byte, error) { return json.Marshal(q.n) }

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	parsed, err := NewQuantity(n)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func (q Quantity) Value() (driver.Value, error) { return int64(q.n), nil }

func (q *Quantity) Scan(src any) error {
	var n int64
	switch v := src.(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	case []byte:
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("scan quantity: %w", err)
		}
	case string:
		if _, err := fmt.Sscan(v, &n); err != nil {
			return fmt.Errorf("scan quantity: %w", err)
		}
	default:
		return fmt.Errorf("scan quantity: unsupported type %T", src)
	}
	parsed, err := NewQuantity(int(n))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

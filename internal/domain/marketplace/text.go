package marketplace

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// text is the shared representation of the non-empty string value objects.
type text struct {
	s string
}

func newText(op, field string, s string) (text, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return text{}, invalid(op, ErrEmptyText, field+" must not be empty")
	}
	return text{s: s}, nil
}

func (t text) String() string { return t.s }

func (t text) IsZero() bool { return t.s == "" }

func (t text) MarshalJSON() ([]byte, error) { return json.Marshal(t.s) }

func (t text) Value() (driver.Value, error) { return t.s, nil }

func (t *text) Scan(src any) error {
	switch v := src.(type) {
	case string:
		t.s = v
	case []byte:
		t.s = string(v)
	case nil:
		t.s = ""
	default:
		return fmt.Errorf("scan text: unsupported type %T", src)
	}
	return nil
}

type Username struct{ text }

func NewUsername(s string) (Username, error) {
	t, err := newText("Username.New", "username", s)
	return Username{t}, err
}

func (u Username) Equal(o Username) bool { return u.s == o.s }

func (u *Username) UnmarshalJSON(b []byte) error {
	return unmarshalText(b, func(s string) error {
		v, err := NewUsername(s)
		*u = v
		return err
	})
}

type ProductName struct{ text }

func NewProductName(s string) (ProductName, error) {
	t, err := newText("ProductName.New", "product name", s)
	return ProductName{t}, err
}

func (n *ProductName) UnmarshalJSON(b []byte) error {
	return unmarshalText(b, func(s string) error {
		v, err := NewProductName(s)
		*n = v
		return err
	})
}

type Description struct{ text }

func NewDescription(s string) (Description, error) {
	t, err := newText("Description.New", "description", s)
	return Description{t}, err
}

func (d *Description) UnmarshalJSON(b []byte) error {
	return unmarshalText(b, func(s string) error {
		v, err := NewDescription(s)
		*d = v
		return err
	})
}

func unmarshalText(b []byte, set func(string) error) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return set(s)
}

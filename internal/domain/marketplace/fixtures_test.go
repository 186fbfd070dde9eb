package marketplace

import (
	"errors"
	"testing"

	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func mustClient(t *testing.T, name, balance string) *Client {
	t.Helper()
	u, err := NewUsername(name)
	if err != nil {
		t.Fatalf("NewUsername: %v", err)
	}
	c, err := NewClient(u)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if m := MustMoney(balance); m.IsPositive() {
		if err := c.AddBalance(m); err != nil {
			t.Fatalf("AddBalance: %v", err)
		}
	}
	return c
}

func mustSeller(t *testing.T, name string) *Seller {
	t.Helper()
	u, err := NewUsername(name)
	if err != nil {
		t.Fatalf("NewUsername: %v", err)
	}
	s, err := NewSeller(u)
	if err != nil {
		t.Fatalf("NewSeller: %v", err)
	}
	return s
}

func mustProduct(t *testing.T, s *Seller, name, price string, stock int) *Product {
	t.Helper()
	n, err := NewProductName(name)
	if err != nil {
		t.Fatalf("NewProductName: %v", err)
	}
	d, err := NewDescription(name + " description")
	if err != nil {
		t.Fatalf("NewDescription: %v", err)
	}
	p, err := s.CreateProduct(n, d, MustMoney(price), MustQuantity(stock))
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}

func wantErr(t *testing.T, err error, sentinel error, code aggregates.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", sentinel)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	if got := aggregates.CodeOf(err); got != code {
		t.Fatalf("error code: want=%s got=%s (%v)", code, got, err)
	}
}

func wantBalance(t *testing.T, label string, got Money, want string) {
	t.Helper()
	if !got.Equal(MustMoney(want)) {
		t.Fatalf("%s balance: want=%s got=%s", label, want, got)
	}
}

// advance drives a paid order through delivery to completion.
func advance(t *testing.T, o *Order) {
	t.Helper()
	if err := o.MarkShipped(); err != nil {
		t.Fatalf("MarkShipped: %v", err)
	}
	if err := o.MarkDelivered(); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if err := o.MarkCompleted(); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
}

package marketplace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func TestCartAddProductMergesLines(t *testing.T) {
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "lamp", "10", 5)
	c := NewCart(uuid.New())

	if err := c.AddProduct(p, MustQuantity(2)); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if err := c.AddProduct(p, MustQuantity(3)); err != nil {
		t.Fatalf("AddProduct merge: %v", err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("lines: want=1 got=%d", len(c.Lines))
	}
	if c.Lines[0].Quantity.Int() != 5 {
		t.Fatalf("quantity: want=5 got=%d", c.Lines[0].Quantity.Int())
	}
	if c.Lines[0].IsSelected() {
		t.Fatalf("new line should start unselected")
	}

	err := c.AddProduct(p, MustQuantity(1))
	wantErr(t, err, ErrInsufficientStock, aggregates.CodeInvariantViolation)
	if c.Lines[0].Quantity.Int() != 5 {
		t.Fatalf("failed add mutated line: got=%d", c.Lines[0].Quantity.Int())
	}
}

func TestCartQuantityNeverExceedsStock(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("line quantity <= stock after any add sequence", prop.ForAll(
		func(stock int, adds []int) bool {
			s := mustSeller(t, "seller")
			p := mustProduct(t, s, "widget", "1", stock)
			c := NewCart(uuid.New())
			for _, n := range adds {
				_ = c.AddProduct(p, MustQuantity(n))
				if l, ok := c.Line(p.ID); ok && l.Quantity.Int() > p.Stock {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.TestingRun(t)
}

func TestCartLineOperationsRequireExistingLine(t *testing.T) {
	c := NewCart(uuid.New())
	missing := uuid.New()

	wantErr(t, c.RemoveProduct(missing), ErrNotInCart, aggregates.CodeInvariantViolation)
	wantErr(t, c.SelectForBuy(missing), ErrNotInCart, aggregates.CodeInvariantViolation)
	wantErr(t, c.UnselectForBuy(missing), ErrNotInCart, aggregates.CodeInvariantViolation)
}

func TestCartClearSelectedKeepsUnselected(t *testing.T) {
	s := mustSeller(t, "seller")
	a := mustProduct(t, s, "a", "1", 5)
	b := mustProduct(t, s, "b", "2", 5)
	c := NewCart(uuid.New())
	_ = c.AddProduct(a, MustQuantity(1))
	_ = c.AddProduct(b, MustQuantity(1))

	if err := c.SelectForBuy(a.ID); err != nil {
		t.Fatalf("SelectForBuy: %v", err)
	}
	c.ClearSelected()
	if len(c.Lines) != 1 || c.Lines[0].ProductID != b.ID {
		t.Fatalf("ClearSelected: want only b left, got %+v", c.Lines)
	}

	c.SelectAll()
	if len(c.Selected()) != 1 {
		t.Fatalf("SelectAll: want=1 selected got=%d", len(c.Selected()))
	}
	c.UnselectAll()
	if len(c.Selected()) != 0 {
		t.Fatalf("UnselectAll: want=0 selected got=%d", len(c.Selected()))
	}
	c.Clear()
	if len(c.Lines) != 0 {
		t.Fatalf("Clear: want empty got=%d", len(c.Lines))
	}
}

func TestCartChangeQuantity(t *testing.T) {
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "mug", "3", 4)
	c := NewCart(uuid.New())
	_ = c.AddProduct(p, MustQuantity(2))

	if err := c.ChangeQuantity(p, 4); err != nil {
		t.Fatalf("increase to stock: %v", err)
	}
	wantErr(t, c.ChangeQuantity(p, 5), ErrInsufficientStock, aggregates.CodeInvariantViolation)
	if err := c.ChangeQuantity(p, 1); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if l, _ := c.Line(p.ID); l.Quantity.Int() != 1 {
		t.Fatalf("decrease: want=1 got=%d", l.Quantity.Int())
	}

	// Stock dropped below holdings: decreasing is still allowed.
	p.Stock = 0
	if err := c.ChangeQuantity(p, 0); err != nil {
		t.Fatalf("zero removes: %v", err)
	}
	if _, ok := c.Line(p.ID); ok {
		t.Fatalf("zero should remove the line")
	}
}

func TestCartTotalPriceUsesLivePrice(t *testing.T) {
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "pen", "2.50", 10)
	c := NewCart(uuid.New())
	_ = c.AddProduct(p, MustQuantity(4))

	total, err := c.TotalPrice(NewProductSet(p))
	if err != nil {
		t.Fatalf("TotalPrice: %v", err)
	}
	if total.String() != "10.00" {
		t.Fatalf("TotalPrice: want=10.00 got=%s", total)
	}
	if err := s.ChangeProductPrice(p, MustMoney("3")); err != nil {
		t.Fatalf("ChangeProductPrice: %v", err)
	}
	total, _ = c.TotalPrice(NewProductSet(p))
	if total.String() != "12.00" {
		t.Fatalf("TotalPrice after price change: want=12.00 got=%s", total)
	}
}

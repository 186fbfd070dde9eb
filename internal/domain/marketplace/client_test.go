package marketplace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func TestPlaceSelectedOrderFromCart(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "seller")
	a := mustProduct(t, s, "a", "10", 5)
	b := mustProduct(t, s, "b", "20", 5)
	products := NewProductSet(a, b)

	_, err := c.PlaceSelectedOrderFromCart(products)
	wantErr(t, err, ErrEmptySelection, aggregates.CodeInvariantViolation)

	if err := c.AddToCart(a, MustQuantity(2)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := c.AddToCart(b, MustQuantity(1)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := c.SelectForOrder(a.ID); err != nil {
		t.Fatalf("SelectForOrder: %v", err)
	}

	o, err := c.PlaceSelectedOrderFromCart(products)
	if err != nil {
		t.Fatalf("PlaceSelectedOrderFromCart: %v", err)
	}
	if o.Status != OrderPending || o.TotalAmount.String() != "20.00" {
		t.Fatalf("order: want pending/20.00 got %s/%s", o.Status, o.TotalAmount)
	}
	if a.Stock != 5 {
		t.Fatalf("placement must not move stock, got %d", a.Stock)
	}
	wantBalance(t, "client", c.Balance, "100")
	if len(c.Cart.Lines) != 1 || c.Cart.Lines[0].ProductID != b.ID {
		t.Fatalf("cart should keep only the unselected line, got %+v", c.Cart.Lines)
	}
	if len(c.PurchaseHistory) != 1 || c.PurchaseHistory[0] != o.ID {
		t.Fatalf("purchase history: got %v", c.PurchaseHistory)
	}
}

func TestPlacedOrdersCarryHistorySequence(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "seller")
	a := mustProduct(t, s, "a", "10", 5)
	c.PurchaseHistory = []uuid.UUID{uuid.New(), uuid.New()}

	first, err := c.PlaceDirectOrder(a, MustQuantity(1))
	if err != nil {
		t.Fatalf("PlaceDirectOrder: %v", err)
	}
	if err := c.AddToCart(a, MustQuantity(1)); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	c.SelectAllForOrder()
	second, err := c.PlaceSelectedOrderFromCart(NewProductSet(a))
	if err != nil {
		t.Fatalf("PlaceSelectedOrderFromCart: %v", err)
	}
	if first.HistorySeq != 3 || second.HistorySeq != 4 {
		t.Fatalf("history seq: want=3,4 got=%d,%d", first.HistorySeq, second.HistorySeq)
	}
	if len(c.PurchaseHistory) != 4 || c.PurchaseHistory[3] != second.ID {
		t.Fatalf("purchase history: %v", c.PurchaseHistory)
	}
}

func TestPlaceSelectedOrderPrechecksStockAndBalance(t *testing.T) {
	c := mustClient(t, "buyer", "15")
	s := mustSeller(t, "seller")
	a := mustProduct(t, s, "a", "10", 5)
	products := NewProductSet(a)

	_ = c.AddToCart(a, MustQuantity(2))
	c.SelectAllForOrder()
	_, err := c.PlaceSelectedOrderFromCart(products)
	wantErr(t, err, ErrInsufficientFunds, aggregates.CodeInvariantViolation)

	a.Stock = 1
	_, err = c.PlaceSelectedOrderFromCart(products)
	wantErr(t, err, ErrInsufficientStock, aggregates.CodeInvariantViolation)
	if len(c.Cart.Selected()) != 1 || len(c.PurchaseHistory) != 0 {
		t.Fatalf("failed placement must leave cart and history alone")
	}
}

func TestAddToCartRequiresListed(t *testing.T) {
	c := mustClient(t, "buyer", "0")
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "a", "1", 3)
	if err := s.UnlistProduct(p); err != nil {
		t.Fatalf("UnlistProduct: %v", err)
	}
	wantErr(t, c.AddToCart(p, MustQuantity(1)), ErrProductNotListed, aggregates.CodeInvariantViolation)
}

func TestPayMovesMoneyAndStock(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s1 := mustSeller(t, "s1")
	s2 := mustSeller(t, "s2")
	a := mustProduct(t, s1, "a", "12.50", 4)
	b := mustProduct(t, s2, "b", "5", 4)
	products := NewProductSet(a, b)
	sellers := NewSellerSet(s1, s2)

	_ = c.AddToCart(a, MustQuantity(2))
	_ = c.AddToCart(b, MustQuantity(3))
	c.SelectAllForOrder()
	o, err := c.PlaceSelectedOrderFromCart(products)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if err := c.Pay(o, products, sellers); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	wantBalance(t, "client", c.Balance, "60")
	wantBalance(t, "s1", s1.Balance, "25")
	wantBalance(t, "s2", s2.Balance, "15")
	if a.Stock != 2 || b.Stock != 1 {
		t.Fatalf("stock: want a=2 b=1 got a=%d b=%d", a.Stock, b.Stock)
	}
	if o.Status != OrderPaid {
		t.Fatalf("status: want=%s got=%s", OrderPaid, o.Status)
	}

	wantErr(t, c.Pay(o, products, sellers), ErrIllegalTransition, aggregates.CodePreconditionFailed)
}

func TestPayIsAllOrNothing(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s1 := mustSeller(t, "s1")
	s2 := mustSeller(t, "s2")
	a := mustProduct(t, s1, "a", "10", 4)
	b := mustProduct(t, s2, "b", "10", 4)
	products := NewProductSet(a, b)
	sellers := NewSellerSet(s1, s2)

	_ = c.AddToCart(a, MustQuantity(1))
	_ = c.AddToCart(b, MustQuantity(2))
	c.SelectAllForOrder()
	o, err := c.PlaceSelectedOrderFromCart(products)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// The second line can no longer be filled.
	b.Stock = 1
	wantErr(t, c.Pay(o, products, sellers), ErrInsufficientStock, aggregates.CodeInvariantViolation)
	wantBalance(t, "client", c.Balance, "100")
	wantBalance(t, "s1", s1.Balance, "0")
	if a.Stock != 4 || o.Status != OrderPending {
		t.Fatalf("partial pay leaked: a.stock=%d status=%s", a.Stock, o.Status)
	}

	b.Stock = 4
	stranger := mustClient(t, "stranger", "1000")
	wantErr(t, stranger.Pay(o, products, sellers), ErrForeignOrder, aggregates.CodeForbidden)

	wantErr(t, c.Pay(o, products, NewSellerSet(s1)), ErrSellerMissing, aggregates.CodeInvariantViolation)
}

func TestPayUsesLivePrice(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "s")
	p := mustProduct(t, s, "a", "10", 4)
	o, err := c.PlaceDirectOrder(p, MustQuantity(2))
	if err != nil {
		t.Fatalf("PlaceDirectOrder: %v", err)
	}
	if err := s.ChangeProductPrice(p, MustMoney("12")); err != nil {
		t.Fatalf("ChangeProductPrice: %v", err)
	}
	if err := c.Pay(o, NewProductSet(p), NewSellerSet(s)); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	wantBalance(t, "client", c.Balance, "76")
	if o.TotalAmount.String() != "24.00" {
		t.Fatalf("TotalAmount re-stamped at pay: want=24.00 got=%s", o.TotalAmount)
	}
}

func TestCancelReversesPayExactly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("pay then cancel restores every balance and stock", prop.ForAll(
		func(priceA, priceB int64, qa, qb int, repriceCents int64) bool {
			c := mustClient(t, "buyer", "100000")
			s1 := mustSeller(t, "s1")
			s2 := mustSeller(t, "s2")
			a := mustProduct(t, s1, "a", "1", 50)
			b := mustProduct(t, s2, "b", "1", 50)
			a.Price, _ = MoneyFromCents(priceA)
			b.Price, _ = MoneyFromCents(priceB)
			products := NewProductSet(a, b)
			sellers := NewSellerSet(s1, s2)

			_ = c.AddToCart(a, MustQuantity(qa))
			_ = c.AddToCart(b, MustQuantity(qb))
			c.SelectAllForOrder()
			o, err := c.PlaceSelectedOrderFromCart(products)
			if err != nil {
				return false
			}
			if err := c.Pay(o, products, sellers); err != nil {
				return false
			}
			// A later price change must not skew the reversal.
			a.Price, _ = MoneyFromCents(repriceCents)
			if err := c.Cancel(o, products, sellers); err != nil {
				return false
			}
			return c.Balance.Equal(MustMoney("100000")) &&
				s1.Balance.IsZero() && s2.Balance.IsZero() &&
				a.Stock == 50 && b.Stock == 50 &&
				o.Status == OrderCancelled
		},
		gen.Int64Range(0, 100_000),
		gen.Int64Range(0, 100_000),
		gen.IntRange(1, 10),
		gen.IntRange(1, 10),
		gen.Int64Range(0, 100_000),
	))

	properties.TestingRun(t)
}

func TestCancelOnlyFromPaid(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "s")
	p := mustProduct(t, s, "a", "10", 4)
	o, err := c.PlaceDirectOrder(p, MustQuantity(1))
	if err != nil {
		t.Fatalf("PlaceDirectOrder: %v", err)
	}
	products, sellers := NewProductSet(p), NewSellerSet(s)
	wantErr(t, c.Cancel(o, products, sellers), ErrIllegalTransition, aggregates.CodePreconditionFailed)

	if err := c.Pay(o, products, sellers); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if err := o.MarkShipped(); err != nil {
		t.Fatalf("MarkShipped: %v", err)
	}
	wantErr(t, c.Cancel(o, products, sellers), ErrIllegalTransition, aggregates.CodePreconditionFailed)
}

func TestCancelFailsWhenSellerCannotCoverRefund(t *testing.T) {
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "s")
	p := mustProduct(t, s, "a", "10", 4)
	products, sellers := NewProductSet(p), NewSellerSet(s)
	o, _ := c.PlaceDirectOrder(p, MustQuantity(2))
	if err := c.Pay(o, products, sellers); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	s.Balance = MustMoney("5")

	wantErr(t, c.Cancel(o, products, sellers), ErrInsufficientFunds, aggregates.CodeInvariantViolation)
	if p.Stock != 2 || o.Status != OrderPaid {
		t.Fatalf("failed cancel leaked: stock=%d status=%s", p.Stock, o.Status)
	}
	wantBalance(t, "client", c.Balance, "80")
}

func TestRequestProductReturnRefusesToGuess(t *testing.T) {
	c := mustClient(t, "buyer", "0")
	s1 := mustSeller(t, "s1")
	s2 := mustSeller(t, "s2")
	productID := uuid.New()
	o := &Order{
		ID:       uuid.New(),
		ClientID: c.ID,
		Status:   OrderCompleted,
		Lines: []OrderLine{
			{ID: uuid.New(), ProductID: productID, SellerID: s1.ID, Quantity: MustQuantity(1)},
			{ID: uuid.New(), ProductID: productID, SellerID: s2.ID, Quantity: MustQuantity(1)},
		},
	}
	wantErr(t, c.RequestProductReturn(o, productID, MustQuantity(1)), ErrAmbiguousReturn, aggregates.CodeInvariantViolation)
	wantErr(t, c.RequestProductReturn(o, uuid.New(), MustQuantity(1)), ErrNotInOrder, aggregates.CodeInvariantViolation)

	if err := c.RequestReturn(o, s2.ID, productID, MustQuantity(1)); err != nil {
		t.Fatalf("explicit seller: %v", err)
	}
	if err := c.RequestLineReturn(o, o.Lines[0].ID, MustQuantity(1)); err != nil {
		t.Fatalf("by line id: %v", err)
	}
	if len(o.ReturnStatuses) != 2 {
		t.Fatalf("return statuses: want=2 got=%d", len(o.ReturnStatuses))
	}
}

func TestChangeUsernameReportsNoop(t *testing.T) {
	c := mustClient(t, "buyer", "0")
	same, _ := NewUsername("buyer")
	changed, err := c.ChangeUsername(same)
	if err != nil || changed {
		t.Fatalf("unchanged username: want=false,nil got=%v,%v", changed, err)
	}
	other, _ := NewUsername("renamed")
	changed, err = c.ChangeUsername(other)
	if err != nil || !changed || c.Username.String() != "renamed" {
		t.Fatalf("rename: got changed=%v err=%v name=%s", changed, err, c.Username)
	}
}

func TestClientAddBalanceMustBePositive(t *testing.T) {
	c := mustClient(t, "buyer", "0")
	wantErr(t, c.AddBalance(ZeroMoney()), ErrNonPositive, aggregates.CodeValidation)
	wantErr(t, c.SubtractBalance(MustMoney("1")), ErrInsufficientFunds, aggregates.CodeInvariantViolation)
}

package marketplace

import (
	"testing"

	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func TestSellerCatalogOwnership(t *testing.T) {
	s := mustSeller(t, "owner")
	other := mustSeller(t, "other")
	p := mustProduct(t, s, "a", "5", 2)

	if !s.Owns(p.ID) || p.ListingStatus != ListingListed {
		t.Fatalf("new product should be owned and listed")
	}
	wantErr(t, s.AddProduct(p), ErrDuplicateProduct, aggregates.CodeInvariantViolation)
	wantErr(t, other.AddProduct(p), ErrAlreadyOwned, aggregates.CodeInvariantViolation)
	wantErr(t, other.ReplenishProduct(p, MustQuantity(1)), ErrNotOwner, aggregates.CodeInvariantViolation)
	wantErr(t, other.ChangeProductPrice(p, MustMoney("1")), ErrNotOwner, aggregates.CodeInvariantViolation)
	wantErr(t, other.UnlistProduct(p), ErrNotOwner, aggregates.CodeInvariantViolation)

	if err := s.ReplenishProduct(p, MustQuantity(3)); err != nil {
		t.Fatalf("ReplenishProduct: %v", err)
	}
	if err := s.ReduceProductStock(p, MustQuantity(5)); err != nil {
		t.Fatalf("ReduceProductStock to zero: %v", err)
	}
	wantErr(t, s.ReduceProductStock(p, MustQuantity(1)), ErrInsufficientStock, aggregates.CodeInvariantViolation)
	if p.Stock != 0 {
		t.Fatalf("stock: want=0 got=%d", p.Stock)
	}
}

func TestSellerDeleteProductNeedsZeroStock(t *testing.T) {
	s := mustSeller(t, "owner")
	p := mustProduct(t, s, "a", "5", 2)

	wantErr(t, s.DeleteProduct(p), ErrProductHasStock, aggregates.CodeInvariantViolation)
	if err := s.ReduceProductStock(p, MustQuantity(2)); err != nil {
		t.Fatalf("ReduceProductStock: %v", err)
	}
	if err := s.DeleteProduct(p); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if s.Owns(p.ID) || p.ListingStatus != ListingUnlisted {
		t.Fatalf("deleted product should be unlisted and dropped from catalog")
	}
}

func TestSellerAvailableProducts(t *testing.T) {
	s := mustSeller(t, "owner")
	a := mustProduct(t, s, "a", "5", 2)
	b := mustProduct(t, s, "b", "5", 2)
	c := mustProduct(t, s, "c", "5", 1)
	_ = s.UnlistProduct(b)
	_ = s.ReduceProductStock(c, MustQuantity(1))

	got := s.AvailableProducts(NewProductSet(a, b, c))
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("available: want only a, got %d products", len(got))
	}
}

func paidCompletedOrder(t *testing.T) (*Client, *Seller, *Product, *Order) {
	t.Helper()
	c := mustClient(t, "buyer", "100")
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "a", "10", 5)
	o, err := c.PlaceDirectOrder(p, MustQuantity(3))
	if err != nil {
		t.Fatalf("PlaceDirectOrder: %v", err)
	}
	if err := c.Pay(o, NewProductSet(p), NewSellerSet(s)); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	advance(t, o)
	return c, s, p, o
}

func TestApproveOrderReturnRefundsAndRestocks(t *testing.T) {
	c, s, p, o := paidCompletedOrder(t)
	products := NewProductSet(p)

	wantErr(t, s.ApproveOrderReturn(o, c, products), ErrNothingToRefund, aggregates.CodeInvariantViolation)
	wantBalance(t, "client before request", c.Balance, "70")

	if err := c.RequestReturn(o, s.ID, p.ID, MustQuantity(2)); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if err := s.ApproveOrderReturn(o, c, products); err != nil {
		t.Fatalf("ApproveOrderReturn: %v", err)
	}
	wantBalance(t, "client", c.Balance, "90")
	wantBalance(t, "seller", s.Balance, "10")
	if p.Stock != 4 {
		t.Fatalf("stock: want=4 got=%d", p.Stock)
	}
	if o.ReturnStatusFor(s.ID) != ReturnRefunded {
		t.Fatalf("status: want=%s got=%s", ReturnRefunded, o.ReturnStatusFor(s.ID))
	}

	// Request rows stay as history, so a repeat approval is a status failure.
	wantErr(t, s.ApproveOrderReturn(o, c, products), ErrIllegalTransition, aggregates.CodePreconditionFailed)
	wantBalance(t, "seller after repeat", s.Balance, "10")
}

func TestApproveOrderReturnInsufficientSellerBalanceLeavesOrderUntouched(t *testing.T) {
	c, s, p, o := paidCompletedOrder(t)
	products := NewProductSet(p)
	if err := c.RequestReturn(o, s.ID, p.ID, MustQuantity(3)); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	s.Balance = MustMoney("29.99")

	wantErr(t, s.ApproveOrderReturn(o, c, products), ErrInsufficientFunds, aggregates.CodeInvariantViolation)
	if o.ReturnStatusFor(s.ID) != ReturnRequested {
		t.Fatalf("status: want=%s got=%s", ReturnRequested, o.ReturnStatusFor(s.ID))
	}
	wantBalance(t, "seller", s.Balance, "29.99")
	wantBalance(t, "client", c.Balance, "70")
	if p.Stock != 2 {
		t.Fatalf("stock: want=2 got=%d", p.Stock)
	}
}

func TestSellerMustHaveLinesInOrder(t *testing.T) {
	c, _, p, o := paidCompletedOrder(t)
	stranger := mustSeller(t, "stranger")
	wantErr(t, stranger.ApproveOrderReturn(o, c, NewProductSet(p)), ErrForeignOrder, aggregates.CodeForbidden)
	wantErr(t, stranger.RejectOrderReturn(o), ErrForeignOrder, aggregates.CodeForbidden)
}

// Two sellers, a paid-and-cancelled side order, one approved and one
// rejected return on the completed order.
func TestMarketplaceScenario(t *testing.T) {
	client := mustClient(t, "client", "5000")
	seller1 := mustSeller(t, "seller1")
	seller2 := mustSeller(t, "seller2")
	productA := mustProduct(t, seller1, "A", "999", 10)
	productB := mustProduct(t, seller2, "B", "150", 10)
	products := NewProductSet(productA, productB)
	sellers := NewSellerSet(seller1, seller2)

	if err := client.AddToCart(productA, MustQuantity(1)); err != nil {
		t.Fatalf("AddToCart A: %v", err)
	}
	if err := client.AddToCart(productB, MustQuantity(1)); err != nil {
		t.Fatalf("AddToCart B: %v", err)
	}
	client.SelectAllForOrder()
	first, err := client.PlaceSelectedOrderFromCart(products)
	if err != nil {
		t.Fatalf("place first: %v", err)
	}
	if err := client.Pay(first, products, sellers); err != nil {
		t.Fatalf("pay first: %v", err)
	}
	wantBalance(t, "client", client.Balance, "3851")
	wantBalance(t, "seller1", seller1.Balance, "999")
	wantBalance(t, "seller2", seller2.Balance, "150")
	if first.Status != OrderPaid {
		t.Fatalf("first status: want=%s got=%s", OrderPaid, first.Status)
	}

	second, err := client.PlaceDirectOrder(productB, MustQuantity(1))
	if err != nil {
		t.Fatalf("place second: %v", err)
	}
	if err := client.Pay(second, products, sellers); err != nil {
		t.Fatalf("pay second: %v", err)
	}
	if err := client.Cancel(second, products, sellers); err != nil {
		t.Fatalf("cancel second: %v", err)
	}
	wantBalance(t, "client", client.Balance, "3851")
	wantBalance(t, "seller2", seller2.Balance, "150")
	if second.Status != OrderCancelled {
		t.Fatalf("second status: want=%s got=%s", OrderCancelled, second.Status)
	}

	advance(t, first)

	if err := client.RequestProductReturn(first, productA.ID, MustQuantity(1)); err != nil {
		t.Fatalf("request return A: %v", err)
	}
	if err := seller1.ApproveOrderReturn(first, client, products); err != nil {
		t.Fatalf("approve return A: %v", err)
	}
	wantBalance(t, "client", client.Balance, "4850")
	wantBalance(t, "seller1", seller1.Balance, "0")
	if first.ReturnStatusFor(seller1.ID) != ReturnRefunded {
		t.Fatalf("seller1 return: want=%s got=%s", ReturnRefunded, first.ReturnStatusFor(seller1.ID))
	}

	if err := client.RequestProductReturn(first, productB.ID, MustQuantity(1)); err != nil {
		t.Fatalf("request return B: %v", err)
	}
	if err := seller2.RejectOrderReturn(first); err != nil {
		t.Fatalf("reject return B: %v", err)
	}
	if first.ReturnStatusFor(seller2.ID) != ReturnRejected {
		t.Fatalf("seller2 return: want=%s got=%s", ReturnRejected, first.ReturnStatusFor(seller2.ID))
	}
	wantErr(t, client.RequestProductReturn(first, productB.ID, MustQuantity(1)), ErrReturnInProgress, aggregates.CodeInvariantViolation)
}

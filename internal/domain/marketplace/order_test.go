package marketplace

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func TestNewOrderGroupsUnitsByProduct(t *testing.T) {
	s := mustSeller(t, "seller")
	a := mustProduct(t, s, "a", "1.50", 10)
	b := mustProduct(t, s, "b", "2", 10)

	o, err := newOrder(uuid.New(), []*Product{a, b, a, a})
	if err != nil {
		t.Fatalf("newOrder: %v", err)
	}
	if o.Status != OrderPending {
		t.Fatalf("status: want=%s got=%s", OrderPending, o.Status)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("lines: want=2 got=%d", len(o.Lines))
	}
	if o.Lines[0].ProductID != a.ID || o.Lines[0].Quantity.Int() != 3 {
		t.Fatalf("first line: want a x3 got %s x%d", o.Lines[0].ProductID, o.Lines[0].Quantity.Int())
	}
	if o.Lines[1].SellerID != s.ID {
		t.Fatalf("captured seller: want=%s got=%s", s.ID, o.Lines[1].SellerID)
	}
	if o.TotalAmount.String() != "6.50" {
		t.Fatalf("total: want=6.50 got=%s", o.TotalAmount)
	}

	if _, err := newOrder(uuid.New(), nil); err == nil {
		t.Fatalf("empty order should fail")
	}
}

func TestOrderTransitionGuardTable(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled}
	legal := map[[2]OrderStatus]bool{
		{OrderPending, OrderPaid}:        true,
		{OrderPaid, OrderShipped}:        true,
		{OrderShipped, OrderDelivered}:   true,
		{OrderDelivered, OrderCompleted}: true,
		{OrderPaid, OrderCancelled}:      true,
	}
	mark := map[OrderStatus]func(*Order) error{
		OrderPaid:      (*Order).MarkPaid,
		OrderShipped:   (*Order).MarkShipped,
		OrderDelivered: (*Order).MarkDelivered,
		OrderCompleted: (*Order).MarkCompleted,
		OrderCancelled: (*Order).MarkCancelled,
	}
	for _, from := range all {
		for to, fn := range mark {
			o := &Order{ID: uuid.New(), Status: from}
			err := fn(o)
			if legal[[2]OrderStatus{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
				}
				if o.Status != to {
					t.Fatalf("%s -> %s: status got=%s", from, to, o.Status)
				}
				continue
			}
			wantErr(t, err, ErrIllegalTransition, aggregates.CodePreconditionFailed)
			if o.Status != from {
				t.Fatalf("%s -> %s: failed transition changed status to %s", from, to, o.Status)
			}
		}
	}
}

func TestMarkDeliveredStampsDate(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := Clock
	Clock = func() time.Time { return fixed }
	defer func() { Clock = prev }()

	o := &Order{ID: uuid.New(), Status: OrderShipped}
	if _, err := o.DeliveredAt(); err == nil {
		t.Fatalf("DeliveredAt before delivery should fail")
	}
	if err := o.MarkDelivered(); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	at, err := o.DeliveredAt()
	if err != nil {
		t.Fatalf("DeliveredAt: %v", err)
	}
	if !at.Equal(fixed) {
		t.Fatalf("DeliveredAt: want=%s got=%s", fixed, at)
	}
}

func completedOrder(t *testing.T) (*Order, *Seller, *Product) {
	t.Helper()
	s := mustSeller(t, "seller")
	p := mustProduct(t, s, "chair", "40", 10)
	o, err := newOrder(uuid.New(), []*Product{p, p, p})
	if err != nil {
		t.Fatalf("newOrder: %v", err)
	}
	o.Status = OrderCompleted
	return o, s, p
}

func TestRequestReturnCumulativeCap(t *testing.T) {
	o, s, p := completedOrder(t)

	wantErr(t, o.RequestReturn(s.ID, p.ID, MustQuantity(4)), ErrReturnExceeded, aggregates.CodeInvariantViolation)
	if len(o.ReturnRequests) != 0 || len(o.ReturnStatuses) != 0 {
		t.Fatalf("failed request left rows behind")
	}

	if err := o.RequestReturn(s.ID, p.ID, MustQuantity(2)); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if got := o.ReturnRequestsView()[ReturnKey{SellerID: s.ID, ProductID: p.ID}]; got.Int() != 2 {
		t.Fatalf("requested: want=2 got=%d", got.Int())
	}
	if got := o.ReturnStatusesView()[s.ID]; got != ReturnRequested {
		t.Fatalf("status: want=%s got=%s", ReturnRequested, got)
	}

	wantErr(t, o.RequestReturn(s.ID, p.ID, MustQuantity(1)), ErrReturnInProgress, aggregates.CodeInvariantViolation)
}

func TestRequestReturnNeedsCompletedOrderAndKnownLine(t *testing.T) {
	o, s, p := completedOrder(t)
	wantErr(t, o.RequestReturn(uuid.New(), p.ID, MustQuantity(1)), ErrNotInOrder, aggregates.CodeInvariantViolation)

	o.Status = OrderDelivered
	wantErr(t, o.RequestReturn(s.ID, p.ID, MustQuantity(1)), ErrIllegalTransition, aggregates.CodePreconditionFailed)
}

func TestRejectReturnIsTerminalAndDropsRequests(t *testing.T) {
	o, s, p := completedOrder(t)
	if err := o.RequestReturn(s.ID, p.ID, MustQuantity(1)); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if err := o.RejectReturn(s.ID); err != nil {
		t.Fatalf("RejectReturn: %v", err)
	}
	if len(o.ReturnRequests) != 0 {
		t.Fatalf("reject should drop request rows, got %d", len(o.ReturnRequests))
	}
	if o.ReturnStatusFor(s.ID) != ReturnRejected {
		t.Fatalf("status: want=%s got=%s", ReturnRejected, o.ReturnStatusFor(s.ID))
	}
	wantErr(t, o.RequestReturn(s.ID, p.ID, MustQuantity(1)), ErrReturnInProgress, aggregates.CodeInvariantViolation)
	wantErr(t, o.RejectReturn(s.ID), ErrIllegalTransition, aggregates.CodePreconditionFailed)
}

func TestMarkRefundedRequiresApprovalAndRestocks(t *testing.T) {
	o, s, p := completedOrder(t)
	products := NewProductSet(p)
	if err := o.RequestReturn(s.ID, p.ID, MustQuantity(2)); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	wantErr(t, o.MarkRefunded(s.ID, products), ErrIllegalTransition, aggregates.CodePreconditionFailed)

	if err := o.ApproveReturn(s.ID); err != nil {
		t.Fatalf("ApproveReturn: %v", err)
	}
	before := p.Stock
	if err := o.MarkRefunded(s.ID, products); err != nil {
		t.Fatalf("MarkRefunded: %v", err)
	}
	if p.Stock != before+2 {
		t.Fatalf("stock: want=%d got=%d", before+2, p.Stock)
	}
	if o.ReturnStatusFor(s.ID) != ReturnRefunded {
		t.Fatalf("status: want=%s got=%s", ReturnRefunded, o.ReturnStatusFor(s.ID))
	}
	if len(o.ReturnRequests) != 1 {
		t.Fatalf("refund keeps request rows, got %d", len(o.ReturnRequests))
	}
}

func TestReturnStatusMachine(t *testing.T) {
	legal := map[ReturnStatus][]ReturnStatus{
		ReturnNone:      {ReturnRequested},
		ReturnRequested: {ReturnApproved, ReturnRejected},
		ReturnApproved:  {ReturnRefunded},
	}
	all := []ReturnStatus{ReturnNone, ReturnRequested, ReturnApproved, ReturnRejected, ReturnRefunded}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, n := range legal[from] {
				if n == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: want=%v got=%v", from, to, want, got)
			}
		}
	}
}

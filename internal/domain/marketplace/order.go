package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is created Pending from a snapshot of picks. After creation only its
// status, the pay-time capture on its lines and its return rows change.
type Order struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;column:client_id;not null;index;index:idx_market_order_client_seq,unique,priority:1" json:"client_id"`

	// HistorySeq is the 1-based position in the client's purchase history.
	HistorySeq int `gorm:"column:history_seq;not null;default:0;index:idx_market_order_client_seq,unique,priority:2" json:"history_seq"`

	// pending|paid|shipped|delivered|completed|cancelled
	Status      OrderStatus `gorm:"column:status;not null;index" json:"status"`
	TotalAmount Money       `gorm:"column:total_amount;type:numeric(18,2);not null" json:"total_amount"`

	OrderDate    time.Time  `gorm:"column:order_date;not null;index" json:"order_date"`
	DeliveryDate *time.Time `gorm:"column:delivery_date" json:"delivery_date,omitempty"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	Lines          []OrderLine     `gorm:"-" json:"lines"`
	ReturnRequests []ReturnRequest `gorm:"-" json:"return_requests"`
	ReturnStatuses []ReturnState   `gorm:"-" json:"return_statuses"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "market_order" }

// OrderLine is one distinct product of an order. SellerID is captured at
// creation; payouts and refunds follow it, not the product's live owner.
type OrderLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;column:order_id;not null;index:idx_order_line_order_product,unique,priority:1" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;column:product_id;not null;index:idx_order_line_order_product,unique,priority:2;index" json:"product_id"`
	SellerID  uuid.UUID `gorm:"type:uuid;column:seller_id;not null;index" json:"seller_id"`
	Quantity  Quantity  `gorm:"column:quantity;not null" json:"quantity"`

	// Unit price charged at pay time; zero while Pending.
	PaidUnitPrice Money `gorm:"column:paid_unit_price;type:numeric(18,2);not null" json:"paid_unit_price"`
	Position      int   `gorm:"column:position;not null" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OrderLine) TableName() string { return "order_line" }

// PaidAmount is what this line moved from client to seller at pay time.
func (l OrderLine) PaidAmount() Money { return l.PaidUnitPrice.Times(l.Quantity) }

// ReturnRequest holds the cumulative quantity requested back for (order, seller, product).
type ReturnRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;column:order_id;not null;index:idx_return_request_key,unique,priority:1" json:"order_id"`
	SellerID  uuid.UUID `gorm:"type:uuid;column:seller_id;not null;index:idx_return_request_key,unique,priority:2" json:"seller_id"`
	ProductID uuid.UUID `gorm:"type:uuid;column:product_id;not null;index:idx_return_request_key,unique,priority:3" json:"product_id"`
	Quantity  Quantity  `gorm:"column:quantity;not null" json:"quantity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ReturnRequest) TableName() string { return "order_return_request" }

// ReturnState is the per-(order, seller) negotiation status row.
type ReturnState struct {
	ID       uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID  uuid.UUID    `gorm:"type:uuid;column:order_id;not null;index:idx_return_state_key,unique,priority:1" json:"order_id"`
	SellerID uuid.UUID    `gorm:"type:uuid;column:seller_id;not null;index:idx_return_state_key,unique,priority:2" json:"seller_id"`
	Status   ReturnStatus `gorm:"column:status;not null" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ReturnState) TableName() string { return "order_return_state" }

// ReturnKey addresses a requested-return quantity.
type ReturnKey struct {
	SellerID  uuid.UUID
	ProductID uuid.UUID
}

// newOrder groups the picked units by product id, one line per distinct
// product in first-seen order, capturing each product's current seller.
func newOrder(clientID uuid.UUID, units []*Product) (*Order, error) {
	const op = "Order.New"
	if clientID == uuid.Nil {
		return nil, invalid(op, ErrMissingID, "missing client_id")
	}
	if len(units) == 0 {
		return nil, invalid(op, ErrEmptySelection, "order needs at least one product")
	}
	o := &Order{
		ID:        uuid.New(),
		ClientID:  clientID,
		Status:    OrderPending,
		OrderDate: Clock(),
	}
	index := map[uuid.UUID]int{}
	for _, p := range units {
		if p == nil {
			return nil, invalid(op, ErrMissingID, "nil product in order")
		}
		if i, ok := index[p.ID]; ok {
			o.Lines[i].Quantity = o.Lines[i].Quantity.Add(MustQuantity(1))
			continue
		}
		index[p.ID] = len(o.Lines)
		o.Lines = append(o.Lines, OrderLine{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Quantity:  MustQuantity(1),
			Position:  len(o.Lines),
		})
	}
	o.TotalAmount = SumMoney(priceLines(o.Lines, NewProductSet(units...))...)
	return o, nil
}

func priceLines(lines []OrderLine, products ProductSet) []Money {
	out := make([]Money, 0, len(lines))
	for _, l := range lines {
		if p, ok := products[l.ProductID]; ok && p != nil {
			out = append(out, p.Price.Times(l.Quantity))
		}
	}
	return out
}

// CalculateTotal prices the lines at the products' current prices.
func (o *Order) CalculateTotal(products ProductSet) (Money, error) {
	total := ZeroMoney()
	for _, l := range o.Lines {
		p, err := products.get("Order.CalculateTotal", l.ProductID)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(p.Price.Times(l.Quantity))
	}
	return total, nil
}

// PaidTotal is the sum of what each line was charged at pay time.
func (o *Order) PaidTotal() Money {
	total := ZeroMoney()
	for _, l := range o.Lines {
		total = total.Add(l.PaidAmount())
	}
	return total
}

func (o *Order) transition(op string, to OrderStatus) error {
	if !o.Status.CanTransitionTo(to) {
		return illegal(op, fmt.Sprintf("order %s cannot move %s -> %s", o.ID, o.Status, to))
	}
	o.Status = to
	return nil
}

func (o *Order) MarkPaid() error { return o.transition("Order.MarkPaid", OrderPaid) }

func (o *Order) MarkShipped() error { return o.transition("Order.MarkShipped", OrderShipped) }

// MarkDelivered stamps the delivery date.
func (o *Order) MarkDelivered() error {
	if err := o.transition("Order.MarkDelivered", OrderDelivered); err != nil {
		return err
	}
	at := Clock()
	o.DeliveryDate = &at
	return nil
}

func (o *Order) MarkCompleted() error { return o.transition("Order.MarkCompleted", OrderCompleted) }

func (o *Order) MarkCancelled() error { return o.transition("Order.MarkCancelled", OrderCancelled) }

// DeliveredAt fails until the order has been delivered.
func (o *Order) DeliveredAt() (time.Time, error) {
	if o.DeliveryDate == nil {
		return time.Time{}, illegal("Order.DeliveredAt", fmt.Sprintf("order %s is not delivered yet", o.ID))
	}
	return *o.DeliveryDate, nil
}

func (o *Order) LineByID(lineID uuid.UUID) (OrderLine, bool) {
	for _, l := range o.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return OrderLine{}, false
}

func (o *Order) lineFor(sellerID, productID uuid.UUID) (OrderLine, bool) {
	for _, l := range o.Lines {
		if l.SellerID == sellerID && l.ProductID == productID {
			return l, true
		}
	}
	return OrderLine{}, false
}

// LinesForSeller returns the lines whose captured seller is sellerID.
func (o *Order) LinesForSeller(sellerID uuid.UUID) []OrderLine {
	var out []OrderLine
	for _, l := range o.Lines {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	return out
}

func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	return len(o.LinesForSeller(sellerID)) > 0
}

// SellersForProduct lists the distinct captured sellers of productID's lines.
func (o *Order) SellersForProduct(productID uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, l := range o.Lines {
		if l.ProductID == productID && !seen[l.SellerID] {
			seen[l.SellerID] = true
			out = append(out, l.SellerID)
		}
	}
	return out
}

// ReturnRequestsView is recomputed from the rows on each call.
func (o *Order) ReturnRequestsView() map[ReturnKey]Quantity {
	out := make(map[ReturnKey]Quantity, len(o.ReturnRequests))
	for _, r := range o.ReturnRequests {
		out[ReturnKey{SellerID: r.SellerID, ProductID: r.ProductID}] = r.Quantity
	}
	return out
}

// ReturnStatusesView is recomputed from the rows on each call.
func (o *Order) ReturnStatusesView() map[uuid.UUID]ReturnStatus {
	out := make(map[uuid.UUID]ReturnStatus, len(o.ReturnStatuses))
	for _, r := range o.ReturnStatuses {
		out[r.SellerID] = r.Status
	}
	return out
}

// ReturnStatusFor reads ReturnNone when no row exists for sellerID.
func (o *Order) ReturnStatusFor(sellerID uuid.UUID) ReturnStatus {
	if i := o.stateIndex(sellerID); i >= 0 {
		return o.ReturnStatuses[i].Status
	}
	return ReturnNone
}

func (o *Order) stateIndex(sellerID uuid.UUID) int {
	for i := range o.ReturnStatuses {
		if o.ReturnStatuses[i].SellerID == sellerID {
			return i
		}
	}
	return -1
}

func (o *Order) requestIndex(sellerID, productID uuid.UUID) int {
	for i := range o.ReturnRequests {
		if o.ReturnRequests[i].SellerID == sellerID && o.ReturnRequests[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (o *Order) setReturnStatus(op string, sellerID uuid.UUID, to ReturnStatus) error {
	from := o.ReturnStatusFor(sellerID)
	if !from.CanTransitionTo(to) {
		return illegal(op, fmt.Sprintf("return for seller %s cannot move %s -> %s", sellerID, from, to))
	}
	if i := o.stateIndex(sellerID); i >= 0 {
		o.ReturnStatuses[i].Status = to
		return nil
	}
	o.ReturnStatuses = append(o.ReturnStatuses, ReturnState{
		ID:       uuid.New(),
		OrderID:  o.ID,
		SellerID: sellerID,
		Status:   to,
	})
	return nil
}

// RequestReturn adds qty to the cumulative return request for the line
// (sellerID, productID) and opens the seller's negotiation. Completed orders only.
func (o *Order) RequestReturn(sellerID, productID uuid.UUID, qty Quantity) error {
	const op = "Order.RequestReturn"
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	if o.Status != OrderCompleted {
		return illegal(op, fmt.Sprintf("returns need a completed order (status %s)", o.Status))
	}
	line, ok := o.lineFor(sellerID, productID)
	if !ok {
		return violation(op, ErrNotInOrder, fmt.Sprintf("product %s from seller %s is not in order %s", productID, sellerID, o.ID))
	}
	if st := o.ReturnStatusFor(sellerID); st != ReturnNone {
		return violation(op, ErrReturnInProgress, fmt.Sprintf("return for seller %s is %s", sellerID, st))
	}
	i := o.requestIndex(sellerID, productID)
	already := 0
	if i >= 0 {
		already = o.ReturnRequests[i].Quantity.Int()
	}
	total := already + qty.Int()
	if total > line.Quantity.Int() {
		return violation(op, ErrReturnExceeded, fmt.Sprintf("requested %d of %d ordered", total, line.Quantity.Int()))
	}

	if i >= 0 {
		o.ReturnRequests[i].Quantity = MustQuantity(total)
	} else {
		o.ReturnRequests = append(o.ReturnRequests, ReturnRequest{
			ID:        uuid.New(),
			OrderID:   o.ID,
			SellerID:  sellerID,
			ProductID: productID,
			Quantity:  MustQuantity(total),
		})
	}
	return o.setReturnStatus(op, sellerID, ReturnRequested)
}

// RejectReturn closes the seller's negotiation and drops its request rows.
func (o *Order) RejectReturn(sellerID uuid.UUID) error {
	const op = "Order.RejectReturn"
	if err := o.setReturnStatus(op, sellerID, ReturnRejected); err != nil {
		return err
	}
	kept := o.ReturnRequests[:0]
	for _, r := range o.ReturnRequests {
		if r.SellerID != sellerID {
			kept = append(kept, r)
		}
	}
	o.ReturnRequests = kept
	return nil
}

func (o *Order) ApproveReturn(sellerID uuid.UUID) error {
	return o.setReturnStatus("Order.ApproveReturn", sellerID, ReturnApproved)
}

// returnedLine pairs an order line with the quantity coming back.
type returnedLine struct {
	Line OrderLine
	Qty  Quantity
}

// returnedLines validates the seller's request rows against the ordered
// quantities and the loaded products without mutating anything.
func (o *Order) returnedLines(op string, sellerID uuid.UUID, products ProductSet) ([]returnedLine, error) {
	var out []returnedLine
	for _, l := range o.LinesForSeller(sellerID) {
		i := o.requestIndex(sellerID, l.ProductID)
		if i < 0 {
			continue
		}
		qty := o.ReturnRequests[i].Quantity
		if qty.IsZero() {
			continue
		}
		if qty.Int() > l.Quantity.Int() {
			return nil, violation(op, ErrReturnExceeded, fmt.Sprintf("product %s: requested %d of %d ordered", l.ProductID, qty.Int(), l.Quantity.Int()))
		}
		p, err := products.get(op, l.ProductID)
		if err != nil {
			return nil, err
		}
		if err := p.ensureSeller(op, sellerID); err != nil {
			return nil, err
		}
		out = append(out, returnedLine{Line: l, Qty: qty})
	}
	return out, nil
}

// MarkRefunded restocks every requested quantity for the seller and closes
// the negotiation as Refunded. Request rows are kept as history.
func (o *Order) MarkRefunded(sellerID uuid.UUID, products ProductSet) error {
	const op = "Order.MarkRefunded"
	if st := o.ReturnStatusFor(sellerID); !st.CanTransitionTo(ReturnRefunded) {
		return illegal(op, fmt.Sprintf("return for seller %s cannot move %s -> %s", sellerID, st, ReturnRefunded))
	}
	lines, err := o.returnedLines(op, sellerID, products)
	if err != nil {
		return err
	}
	for _, rl := range lines {
		if err := products[rl.Line.ProductID].RefundStockForOrder(sellerID, rl.Qty); err != nil {
			return err
		}
	}
	return o.setReturnStatus(op, sellerID, ReturnRefunded)
}

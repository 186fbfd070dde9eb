package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client is the buyer root. It owns its cart and an append-only purchase
// history of order ids, and drives checkout, payment, cancellation and
// return requests. Other aggregates are handed in per call and never retained.
type Client struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username Username  `gorm:"column:username;type:text;not null;uniqueIndex" json:"username"`
	Balance  Money     `gorm:"column:balance;type:numeric(18,2);not null" json:"balance"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	Cart            *Cart       `gorm:"-" json:"cart,omitempty"`
	PurchaseHistory []uuid.UUID `gorm:"-" json:"purchase_history"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "client" }

// NewClient starts with a zero balance and an empty cart.
func NewClient(username Username) (*Client, error) {
	if username.IsZero() {
		return nil, invalid("Client.New", ErrEmptyText, "username is required")
	}
	c := &Client{ID: uuid.New(), Username: username, Balance: ZeroMoney()}
	c.Cart = NewCart(c.ID)
	return c, nil
}

func (c *Client) cart() *Cart {
	if c.Cart == nil {
		c.Cart = NewCart(c.ID)
	}
	return c.Cart
}

// ChangeUsername reports false when the name is unchanged.
func (c *Client) ChangeUsername(u Username) (bool, error) {
	if u.IsZero() {
		return false, invalid("Client.ChangeUsername", ErrEmptyText, "username is required")
	}
	if c.Username.Equal(u) {
		return false, nil
	}
	c.Username = u
	return true, nil
}

// AddBalance is a top-up; the amount must be positive.
func (c *Client) AddBalance(amount Money) error {
	if !amount.IsPositive() {
		return invalid("Client.AddBalance", ErrNonPositive, fmt.Sprintf("top-up must be > 0 (got %s)", amount))
	}
	c.Balance = c.Balance.Add(amount)
	return nil
}

func (c *Client) SubtractBalance(amount Money) error {
	const op = "Client.SubtractBalance"
	if !amount.IsPositive() {
		return invalid(op, ErrNonPositive, fmt.Sprintf("amount must be > 0 (got %s)", amount))
	}
	if amount.GreaterThan(c.Balance) {
		return violation(op, ErrInsufficientFunds, fmt.Sprintf("balance %s, needed %s", c.Balance, amount))
	}
	c.Balance, _ = c.Balance.Sub(amount)
	return nil
}

func (c *Client) AddToCart(p *Product, qty Quantity) error {
	const op = "Client.AddToCart"
	if p == nil {
		return invalid(op, ErrMissingID, "missing product")
	}
	if !p.IsListed() {
		return violation(op, ErrProductNotListed, fmt.Sprintf("product %s is not listed", p.ID))
	}
	return c.cart().AddProduct(p, qty)
}

func (c *Client) RemoveFromCart(productID uuid.UUID) error {
	return c.cart().RemoveProduct(productID)
}

// ChangeCartQuantity sets the held quantity; n <= 0 removes the line.
func (c *Client) ChangeCartQuantity(p *Product, n int) error {
	return c.cart().ChangeQuantity(p, n)
}

func (c *Client) ClearCart() { c.cart().Clear() }

func (c *Client) SelectForOrder(productID uuid.UUID) error {
	return c.cart().SelectForBuy(productID)
}

func (c *Client) UnselectForOrder(productID uuid.UUID) error {
	return c.cart().UnselectForBuy(productID)
}

func (c *Client) SelectAllForOrder()   { c.cart().SelectAll() }
func (c *Client) UnselectAllForOrder() { c.cart().UnselectAll() }

// PlaceSelectedOrderFromCart turns the selected cart lines into a Pending
// order. Balance is only pre-checked; no money or stock moves here.
func (c *Client) PlaceSelectedOrderFromCart(products ProductSet) (*Order, error) {
	const op = "Client.PlaceSelectedOrderFromCart"
	selected := c.cart().Selected()
	if len(selected) == 0 {
		return nil, violation(op, ErrEmptySelection, "no cart lines are selected")
	}
	var units []*Product
	for _, l := range selected {
		if err := requireQuantity(op, l.Quantity); err != nil {
			return nil, err
		}
		p, err := products.get(op, l.ProductID)
		if err != nil {
			return nil, err
		}
		if l.Quantity.Int() > p.Stock {
			return nil, violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: selected %d, in stock %d", p.ID, l.Quantity.Int(), p.Stock))
		}
		for i := 0; i < l.Quantity.Int(); i++ {
			units = append(units, p)
		}
	}
	o, err := newOrder(c.ID, units)
	if err != nil {
		return nil, err
	}
	if o.TotalAmount.GreaterThan(c.Balance) {
		return nil, violation(op, ErrInsufficientFunds, fmt.Sprintf("balance %s, order total %s", c.Balance, o.TotalAmount))
	}
	c.recordOrder(o)
	c.cart().ClearSelected()
	return o, nil
}

// PlaceDirectOrder bypasses the cart.
func (c *Client) PlaceDirectOrder(p *Product, qty Quantity) (*Order, error) {
	const op = "Client.PlaceDirectOrder"
	if p == nil {
		return nil, invalid(op, ErrMissingID, "missing product")
	}
	if err := requireQuantity(op, qty); err != nil {
		return nil, err
	}
	if qty.Int() > p.Stock {
		return nil, violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: ordered %d, in stock %d", p.ID, qty.Int(), p.Stock))
	}
	units := make([]*Product, qty.Int())
	for i := range units {
		units[i] = p
	}
	o, err := newOrder(c.ID, units)
	if err != nil {
		return nil, err
	}
	c.recordOrder(o)
	return o, nil
}

// recordOrder appends o to the purchase history. The client row is locked
// while placing, so the sequence is gap-free per client.
func (c *Client) recordOrder(o *Order) {
	o.HistorySeq = len(c.PurchaseHistory) + 1
	c.PurchaseHistory = append(c.PurchaseHistory, o.ID)
}

func (c *Client) ensureOwns(op string, o *Order) error {
	if o == nil {
		return invalid(op, ErrMissingID, "missing order")
	}
	if o.ClientID != c.ID {
		return forbidden(op, ErrForeignOrder, fmt.Sprintf("order %s does not belong to client %s", o.ID, c.ID))
	}
	return nil
}

// Pay charges the live total, moves each line's units out of stock and
// credits each captured seller. Every check runs before the first mutation.
func (c *Client) Pay(o *Order, products ProductSet, sellers SellerSet) error {
	const op = "Client.Pay"
	if err := c.ensureOwns(op, o); err != nil {
		return err
	}
	if o.Status != OrderPending {
		return illegal(op, fmt.Sprintf("order %s is %s, want %s", o.ID, o.Status, OrderPending))
	}
	total, err := o.CalculateTotal(products)
	if err != nil {
		return err
	}
	for _, l := range o.Lines {
		p := products[l.ProductID]
		if err := p.ensureSeller(op, l.SellerID); err != nil {
			return err
		}
		if l.Quantity.Int() > p.Stock {
			return violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: ordered %d, in stock %d", p.ID, l.Quantity.Int(), p.Stock))
		}
		if _, err := sellers.get(op, l.SellerID); err != nil {
			return err
		}
	}
	if total.GreaterThan(c.Balance) {
		return violation(op, ErrInsufficientFunds, fmt.Sprintf("balance %s, order total %s", c.Balance, total))
	}

	c.Balance, _ = c.Balance.Sub(total)
	for i := range o.Lines {
		l := &o.Lines[i]
		p := products[l.ProductID]
		if err := p.RemoveStockForOrder(l.SellerID, l.Quantity); err != nil {
			return err
		}
		l.PaidUnitPrice = p.Price
		sellers[l.SellerID].credit(l.PaidAmount())
	}
	o.TotalAmount = total
	return o.MarkPaid()
}

// Cancel reverses a payment line by line at the prices captured by Pay.
func (c *Client) Cancel(o *Order, products ProductSet, sellers SellerSet) error {
	const op = "Client.Cancel"
	if err := c.ensureOwns(op, o); err != nil {
		return err
	}
	if !o.Status.CanTransitionTo(OrderCancelled) {
		return illegal(op, fmt.Sprintf("order %s is %s, want %s", o.ID, o.Status, OrderPaid))
	}
	owed := map[uuid.UUID]Money{}
	for _, l := range o.Lines {
		p, err := products.get(op, l.ProductID)
		if err != nil {
			return err
		}
		if err := p.ensureSeller(op, l.SellerID); err != nil {
			return err
		}
		if _, err := sellers.get(op, l.SellerID); err != nil {
			return err
		}
		owed[l.SellerID] = owed[l.SellerID].Add(l.PaidAmount())
	}
	for sellerID, amount := range owed {
		s := sellers[sellerID]
		if amount.GreaterThan(s.Balance) {
			return violation(op, ErrInsufficientFunds, fmt.Sprintf("seller %s balance %s, owes %s", sellerID, s.Balance, amount))
		}
	}

	for _, l := range o.Lines {
		if err := products[l.ProductID].RefundStockForOrder(l.SellerID, l.Quantity); err != nil {
			return err
		}
	}
	for sellerID, amount := range owed {
		if err := sellers[sellerID].debit(op, amount); err != nil {
			return err
		}
	}
	c.Balance = c.Balance.Add(o.PaidTotal())
	return o.MarkCancelled()
}

// RequestReturn asks sellerID to take back qty units of productID.
func (c *Client) RequestReturn(o *Order, sellerID, productID uuid.UUID, qty Quantity) error {
	const op = "Client.RequestReturn"
	if err := c.ensureOwns(op, o); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	return o.RequestReturn(sellerID, productID, qty)
}

// RequestProductReturn resolves the seller from the order and refuses to
// guess when more than one seller sold productID in it.
func (c *Client) RequestProductReturn(o *Order, productID uuid.UUID, qty Quantity) error {
	const op = "Client.RequestProductReturn"
	if err := c.ensureOwns(op, o); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	if o.Status != OrderCompleted {
		return illegal(op, fmt.Sprintf("returns need a completed order (status %s)", o.Status))
	}
	sellers := o.SellersForProduct(productID)
	switch len(sellers) {
	case 0:
		return violation(op, ErrNotInOrder, fmt.Sprintf("product %s is not in order %s", productID, o.ID))
	case 1:
	default:
		return violation(op, ErrAmbiguousReturn, fmt.Sprintf("product %s was sold by %d sellers in order %s", productID, len(sellers), o.ID))
	}
	return o.RequestReturn(sellers[0], productID, qty)
}

// RequestLineReturn targets an order line by id.
func (c *Client) RequestLineReturn(o *Order, lineID uuid.UUID, qty Quantity) error {
	const op = "Client.RequestLineReturn"
	if err := c.ensureOwns(op, o); err != nil {
		return err
	}
	l, ok := o.LineByID(lineID)
	if !ok {
		return violation(op, ErrNotInOrder, fmt.Sprintf("line %s is not in order %s", lineID, o.ID))
	}
	return c.RequestReturn(o, l.SellerID, l.ProductID, qty)
}

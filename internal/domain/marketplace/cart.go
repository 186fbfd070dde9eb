package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cart is the client's staging area: at most one line per product.
type Cart struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;column:client_id;not null;uniqueIndex" json:"client_id"`

	Lines []CartLine `gorm:"-" json:"lines"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Cart) TableName() string { return "cart" }

type CartLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;column:cart_id;not null;index:idx_cart_line_cart_product,unique,priority:1" json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;column:product_id;not null;index:idx_cart_line_cart_product,unique,priority:2" json:"product_id"`
	Quantity  Quantity        `gorm:"column:quantity;not null" json:"quantity"`
	Selection SelectionStatus `gorm:"column:selection;not null" json:"selection"`
	Position  int             `gorm:"column:position;not null" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CartLine) TableName() string { return "cart_line" }

func (l CartLine) IsSelected() bool { return l.Selection == SelectionSelected }

func NewCart(clientID uuid.UUID) *Cart {
	return &Cart{ID: uuid.New(), ClientID: clientID}
}

func (c *Cart) lineIndex(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID uuid.UUID) (CartLine, bool) {
	if i := c.lineIndex(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) mustLine(op string, productID uuid.UUID) (int, error) {
	i := c.lineIndex(productID)
	if i < 0 {
		return -1, violation(op, ErrNotInCart, fmt.Sprintf("product %s is not in cart", productID))
	}
	return i, nil
}

// AddProduct merges qty into the product's line. Holdings after the merge
// must not exceed current stock.
func (c *Cart) AddProduct(p *Product, qty Quantity) error {
	const op = "Cart.AddProduct"
	if p == nil {
		return invalid(op, ErrMissingID, "missing product")
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	i := c.lineIndex(p.ID)
	held := 0
	if i >= 0 {
		held = c.Lines[i].Quantity.Int()
	}
	if held+qty.Int() > p.Stock {
		return violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: cart would hold %d, in stock %d", p.ID, held+qty.Int(), p.Stock))
	}
	if i >= 0 {
		c.Lines[i].Quantity = c.Lines[i].Quantity.Add(qty)
		return nil
	}
	c.Lines = append(c.Lines, CartLine{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: p.ID,
		Quantity:  qty,
		Selection: SelectionUnselected,
		Position:  len(c.Lines),
	})
	return nil
}

func (c *Cart) RemoveProduct(productID uuid.UUID) error {
	i, err := c.mustLine("Cart.RemoveProduct", productID)
	if err != nil {
		return err
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

// ChangeQuantity sets the held quantity to n. n <= 0 removes the line;
// increases are checked against stock.
func (c *Cart) ChangeQuantity(p *Product, n int) error {
	const op = "Cart.ChangeQuantity"
	if p == nil {
		return invalid(op, ErrMissingID, "missing product")
	}
	i, err := c.mustLine(op, p.ID)
	if err != nil {
		return err
	}
	if n <= 0 {
		return c.RemoveProduct(p.ID)
	}
	cur := c.Lines[i].Quantity.Int()
	if n > cur && n > p.Stock {
		return violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: cart would hold %d, in stock %d", p.ID, n, p.Stock))
	}
	c.Lines[i].Quantity = MustQuantity(n)
	return nil
}

func (c *Cart) SelectForBuy(productID uuid.UUID) error {
	i, err := c.mustLine("Cart.SelectForBuy", productID)
	if err != nil {
		return err
	}
	c.Lines[i].Selection = SelectionSelected
	return nil
}

func (c *Cart) UnselectForBuy(productID uuid.UUID) error {
	i, err := c.mustLine("Cart.UnselectForBuy", productID)
	if err != nil {
		return err
	}
	c.Lines[i].Selection = SelectionUnselected
	return nil
}

func (c *Cart) SelectAll() {
	for i := range c.Lines {
		c.Lines[i].Selection = SelectionSelected
	}
}

func (c *Cart) UnselectAll() {
	for i := range c.Lines {
		c.Lines[i].Selection = SelectionUnselected
	}
}

// Selected returns copies of the selected lines in cart order.
func (c *Cart) Selected() []CartLine {
	var out []CartLine
	for _, l := range c.Lines {
		if l.IsSelected() {
			out = append(out, l)
		}
	}
	return out
}

func (c *Cart) ClearSelected() {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if !l.IsSelected() {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

func (c *Cart) Clear() { c.Lines = nil }

// TotalPrice prices every line at the product's current price.
func (c *Cart) TotalPrice(products ProductSet) (Money, error) {
	total := ZeroMoney()
	for _, l := range c.Lines {
		p, err := products.get("Cart.TotalPrice", l.ProductID)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(p.Price.Times(l.Quantity))
	}
	return total, nil
}

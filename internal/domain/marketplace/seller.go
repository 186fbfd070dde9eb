package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seller owns products and a business balance, and settles return requests.
// Products holds the ids of the seller's catalog, loaded per transaction.
type Seller struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username Username  `gorm:"column:username;type:text;not null;uniqueIndex" json:"username"`
	Balance  Money     `gorm:"column:balance;type:numeric(18,2);not null" json:"balance"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	Products []uuid.UUID `gorm:"-" json:"products"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Seller) TableName() string { return "seller" }

func NewSeller(username Username) (*Seller, error) {
	if username.IsZero() {
		return nil, invalid("Seller.New", ErrEmptyText, "username is required")
	}
	return &Seller{ID: uuid.New(), Username: username, Balance: ZeroMoney()}, nil
}

func (s *Seller) ChangeUsername(u Username) (bool, error) {
	if u.IsZero() {
		return false, invalid("Seller.ChangeUsername", ErrEmptyText, "username is required")
	}
	if s.Username.Equal(u) {
		return false, nil
	}
	s.Username = u
	return true, nil
}

func (s *Seller) Owns(productID uuid.UUID) bool {
	for _, id := range s.Products {
		if id == productID {
			return true
		}
	}
	return false
}

func (s *Seller) ensureOwnership(op string, p *Product) error {
	if p == nil {
		return invalid(op, ErrMissingID, "missing product")
	}
	if p.SellerID != s.ID || !s.Owns(p.ID) {
		return violation(op, ErrNotOwner, fmt.Sprintf("product %s does not belong to seller %s", p.ID, s.ID))
	}
	return nil
}

func (s *Seller) credit(amount Money) { s.Balance = s.Balance.Add(amount) }

func (s *Seller) debit(op string, amount Money) error {
	next, err := s.Balance.Sub(amount)
	if err != nil {
		return violation(op, ErrInsufficientFunds, fmt.Sprintf("seller %s balance %s, needed %s", s.ID, s.Balance, amount))
	}
	s.Balance = next
	return nil
}

func (s *Seller) AddBalance(amount Money) { s.credit(amount) }

func (s *Seller) SubtractBalance(amount Money) error {
	return s.debit("Seller.SubtractBalance", amount)
}

// AddProduct claims p for this seller and records it in the catalog.
func (s *Seller) AddProduct(p *Product) error {
	const op = "Seller.AddProduct"
	if p == nil {
		return invalid(op, ErrMissingID, "missing product")
	}
	if s.Owns(p.ID) {
		return violation(op, ErrDuplicateProduct, fmt.Sprintf("seller %s already owns product %s", s.ID, p.ID))
	}
	if err := p.AssignToSeller(s.ID); err != nil {
		return err
	}
	s.Products = append(s.Products, p.ID)
	return nil
}

// CreateProduct builds a new Listed product and adds it to the catalog.
func (s *Seller) CreateProduct(name ProductName, description Description, price Money, stock Quantity) (*Product, error) {
	p, err := NewProduct(s.ID, name, description, price, stock)
	if err != nil {
		return nil, err
	}
	if err := s.AddProduct(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Seller) UnlistProduct(p *Product) error {
	const op = "Seller.UnlistProduct"
	if err := s.ensureOwnership(op, p); err != nil {
		return err
	}
	return p.Unlist(s.ID)
}

func (s *Seller) ListProduct(p *Product) error {
	const op = "Seller.ListProduct"
	if err := s.ensureOwnership(op, p); err != nil {
		return err
	}
	return p.List(s.ID)
}

// DeleteProduct unlists p and drops it from the catalog. Stock must be zero.
func (s *Seller) DeleteProduct(p *Product) error {
	const op = "Seller.DeleteProduct"
	if err := s.ensureOwnership(op, p); err != nil {
		return err
	}
	if p.Stock > 0 {
		return violation(op, ErrProductHasStock, fmt.Sprintf("product %s still has %d in stock", p.ID, p.Stock))
	}
	if err := p.Unlist(s.ID); err != nil {
		return err
	}
	kept := s.Products[:0]
	for _, id := range s.Products {
		if id != p.ID {
			kept = append(kept, id)
		}
	}
	s.Products = kept
	return nil
}

func (s *Seller) ReplenishProduct(p *Product, qty Quantity) error {
	if err := s.ensureOwnership("Seller.ReplenishProduct", p); err != nil {
		return err
	}
	return p.IncreaseStock(s.ID, qty)
}

func (s *Seller) ReduceProductStock(p *Product, qty Quantity) error {
	if err := s.ensureOwnership("Seller.ReduceProductStock", p); err != nil {
		return err
	}
	return p.DecreaseStock(s.ID, qty)
}

func (s *Seller) ChangeProductPrice(p *Product, price Money) error {
	if err := s.ensureOwnership("Seller.ChangeProductPrice", p); err != nil {
		return err
	}
	return p.ChangePrice(s.ID, price)
}

// AvailableProducts filters the catalog to what a client can buy now.
func (s *Seller) AvailableProducts(products ProductSet) []*Product {
	var out []*Product
	for _, id := range s.Products {
		if p, ok := products[id]; ok && p != nil && p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Seller) ensureInOrder(op string, o *Order) error {
	if o == nil {
		return invalid(op, ErrMissingID, "missing order")
	}
	if !o.HasSeller(s.ID) {
		return forbidden(op, ErrForeignOrder, fmt.Sprintf("order %s has no lines from seller %s", o.ID, s.ID))
	}
	return nil
}

// RefundAmount is what approving the pending return would move back to the
// client: the pay-time unit price times the requested quantity, per line.
func (s *Seller) RefundAmount(o *Order, products ProductSet) (Money, error) {
	lines, err := o.returnedLines("Seller.RefundAmount", s.ID, products)
	if err != nil {
		return Money{}, err
	}
	total := ZeroMoney()
	for _, rl := range lines {
		total = total.Add(rl.Line.PaidUnitPrice.Times(rl.Qty))
	}
	return total, nil
}

// ApproveOrderReturn refunds the client and restocks the returned units.
// The seller is debited before the order's return status moves, and every
// check runs first, so a failure leaves all three aggregates untouched.
func (s *Seller) ApproveOrderReturn(o *Order, client *Client, products ProductSet) error {
	const op = "Seller.ApproveOrderReturn"
	if err := s.ensureInOrder(op, o); err != nil {
		return err
	}
	if client == nil || client.ID != o.ClientID {
		return invalid(op, ErrMissingID, fmt.Sprintf("client of order %s not loaded", o.ID))
	}
	refund, err := s.RefundAmount(o, products)
	if err != nil {
		return err
	}
	if !refund.IsPositive() {
		return violation(op, ErrNothingToRefund, fmt.Sprintf("no return items for seller %s in order %s", s.ID, o.ID))
	}
	if st := o.ReturnStatusFor(s.ID); st != ReturnRequested {
		return illegal(op, fmt.Sprintf("return for seller %s is %s, want %s", s.ID, st, ReturnRequested))
	}
	if refund.GreaterThan(s.Balance) {
		return violation(op, ErrInsufficientFunds, fmt.Sprintf("seller %s balance %s, refund %s", s.ID, s.Balance, refund))
	}

	if err := s.debit(op, refund); err != nil {
		return err
	}
	client.Balance = client.Balance.Add(refund)
	if err := o.ApproveReturn(s.ID); err != nil {
		return err
	}
	return o.MarkRefunded(s.ID, products)
}

// RejectOrderReturn closes the negotiation; no money or stock moves.
func (s *Seller) RejectOrderReturn(o *Order) error {
	const op = "Seller.RejectOrderReturn"
	if err := s.ensureInOrder(op, o); err != nil {
		return err
	}
	return o.RejectReturn(s.ID)
}

// SellerSet is the per-transaction view of sellers, keyed by id.
type SellerSet map[uuid.UUID]*Seller

func NewSellerSet(sellers ...*Seller) SellerSet {
	out := make(SellerSet, len(sellers))
	for _, s := range sellers {
		if s != nil {
			out[s.ID] = s
		}
	}
	return out
}

func (s SellerSet) get(op string, id uuid.UUID) (*Seller, error) {
	v, ok := s[id]
	if !ok || v == nil {
		return nil, violation(op, ErrSellerMissing, fmt.Sprintf("seller %s not loaded", id))
	}
	return v, nil
}

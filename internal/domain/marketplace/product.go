package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog item. Price and stock only move through the seller-driven
// methods (owner check against SellerID) or the order-driven stock methods.
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID uuid.UUID `gorm:"type:uuid;column:seller_id;not null;index" json:"seller_id"`

	Name        ProductName `gorm:"column:name;type:text;not null" json:"name"`
	Description Description `gorm:"column:description;type:text;not null" json:"description"`
	Price       Money       `gorm:"column:price;type:numeric(18,2);not null" json:"price"`

	// Stock may reach zero through sales and seller decreases.
	Stock int `gorm:"column:stock;not null" json:"stock"`

	ListingStatus ListingStatus `gorm:"column:listing_status;not null;index" json:"listing_status"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }

// NewProduct builds a Listed product owned by sellerID.
func NewProduct(sellerID uuid.UUID, name ProductName, description Description, price Money, stock Quantity) (*Product, error) {
	const op = "Product.New"
	if sellerID == uuid.Nil {
		return nil, invalid(op, ErrMissingID, "missing seller_id")
	}
	if name.IsZero() || description.IsZero() {
		return nil, invalid(op, ErrEmptyText, "name and description are required")
	}
	if stock.IsZero() {
		return nil, invalid(op, ErrInvalidQuantity, "initial stock must be > 0")
	}
	return &Product{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Name:          name,
		Description:   description,
		Price:         price,
		Stock:         stock.Int(),
		ListingStatus: ListingListed,
	}, nil
}

// IsAvailable reports whether a client may currently buy the product.
func (p *Product) IsAvailable() bool {
	return p.ListingStatus == ListingListed && p.Stock > 0
}

func (p *Product) IsListed() bool { return p.ListingStatus == ListingListed }

func (p *Product) ensureSeller(op string, sellerID uuid.UUID) error {
	if sellerID == uuid.Nil || sellerID != p.SellerID {
		return violation(op, ErrNotOwner, fmt.Sprintf("product %s is not owned by seller %s", p.ID, sellerID))
	}
	return nil
}

func requireQuantity(op string, qty Quantity) error {
	if qty.IsZero() {
		return invalid(op, ErrInvalidQuantity, "quantity must be > 0")
	}
	return nil
}

func (p *Product) IncreaseStock(sellerID uuid.UUID, qty Quantity) error {
	const op = "Product.IncreaseStock"
	if err := p.ensureSeller(op, sellerID); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	p.Stock += qty.Int()
	return nil
}

// DecreaseStock may take stock down to exactly zero.
func (p *Product) DecreaseStock(sellerID uuid.UUID, qty Quantity) error {
	const op = "Product.DecreaseStock"
	if err := p.ensureSeller(op, sellerID); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	if qty.Int() > p.Stock {
		return violation(op, ErrInsufficientStock, fmt.Sprintf("cannot remove %d of %d in stock", qty.Int(), p.Stock))
	}
	p.Stock -= qty.Int()
	return nil
}

// RemoveStockForOrder takes sold units out of stock on payment.
func (p *Product) RemoveStockForOrder(sellerID uuid.UUID, qty Quantity) error {
	const op = "Product.RemoveStockForOrder"
	if err := p.ensureSeller(op, sellerID); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	if qty.Int() > p.Stock {
		return violation(op, ErrInsufficientStock, fmt.Sprintf("product %s: ordered %d, in stock %d", p.ID, qty.Int(), p.Stock))
	}
	p.Stock -= qty.Int()
	return nil
}

// RefundStockForOrder puts units back on cancellation or refunded return.
func (p *Product) RefundStockForOrder(sellerID uuid.UUID, qty Quantity) error {
	const op = "Product.RefundStockForOrder"
	if err := p.ensureSeller(op, sellerID); err != nil {
		return err
	}
	if err := requireQuantity(op, qty); err != nil {
		return err
	}
	p.Stock += qty.Int()
	return nil
}

func (p *Product) ChangePrice(sellerID uuid.UUID, price Money) error {
	if err := p.ensureSeller("Product.ChangePrice", sellerID); err != nil {
		return err
	}
	p.Price = price
	return nil
}

func (p *Product) Unlist(sellerID uuid.UUID) error {
	if err := p.ensureSeller("Product.Unlist", sellerID); err != nil {
		return err
	}
	p.ListingStatus = ListingUnlisted
	return nil
}

func (p *Product) List(sellerID uuid.UUID) error {
	if err := p.ensureSeller("Product.List", sellerID); err != nil {
		return err
	}
	p.ListingStatus = ListingListed
	return nil
}

// AssignToSeller claims an unowned product or re-asserts the current owner.
func (p *Product) AssignToSeller(sellerID uuid.UUID) error {
	const op = "Product.AssignToSeller"
	if sellerID == uuid.Nil {
		return invalid(op, ErrMissingID, "missing seller_id")
	}
	if p.SellerID != uuid.Nil && p.SellerID != sellerID {
		return violation(op, ErrAlreadyOwned, fmt.Sprintf("product %s belongs to seller %s", p.ID, p.SellerID))
	}
	p.SellerID = sellerID
	return nil
}

// ProductSet is the per-transaction view of products, keyed by id.
type ProductSet map[uuid.UUID]*Product

func NewProductSet(products ...*Product) ProductSet {
	out := make(ProductSet, len(products))
	for _, p := range products {
		if p != nil {
			out[p.ID] = p
		}
	}
	return out
}

func (s ProductSet) get(op string, id uuid.UUID) (*Product, error) {
	p, ok := s[id]
	if !ok || p == nil {
		return nil, violation(op, ErrProductMissing, fmt.Sprintf("product %s not loaded", id))
	}
	return p, nil
}

package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var AccountAggregateContract = Contract{
	Name:             "Marketplace.AccountAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns client/seller registration, username changes and client top-ups.",
}

var CatalogAggregateContract = Contract{
	Name:             "Marketplace.CatalogAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns seller-driven product lifecycle: create, price, stock, listing, delete.",
}

var CartAggregateContract = Contract{
	Name:             "Marketplace.CartAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns client cart lines and selection; quantities re-checked against live stock.",
}

var OrderAggregateContract = Contract{
	Name:             "Marketplace.OrderAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns order placement, payment, cancellation and fulfilment transitions; money and stock move atomically.",
}

var ReturnAggregateContract = Contract{
	Name:             "Marketplace.ReturnAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the per-seller return negotiation: request, approve (refund + restock), reject.",
}

// AccountAggregate owns client and seller account invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type AccountAggregate interface {
	Aggregate

	RegisterClient(ctx context.Context, in RegisterAccountInput) (AccountResult, error)
	RegisterSeller(ctx context.Context, in RegisterAccountInput) (AccountResult, error)

	// ChangeUsername reports Changed=false when the username is unchanged.
	ChangeUsername(ctx context.Context, in ChangeUsernameInput) (ChangeUsernameResult, error)

	// TopUp credits a client's balance by a positive amount.
	TopUp(ctx context.Context, in TopUpInput) (AccountResult, error)
}

type AccountKind string

const (
	AccountClient AccountKind = "client"
	AccountSeller AccountKind = "seller"
)

type RegisterAccountInput struct {
	Username string
}

type AccountResult struct {
	Kind     AccountKind
	ID       uuid.UUID
	Username string
	Balance  decimal.Decimal
}

type ChangeUsernameInput struct {
	Kind     AccountKind
	ID       uuid.UUID
	Username string
}

type ChangeUsernameResult struct {
	ID       uuid.UUID
	Username string
	Changed  bool
}

type TopUpInput struct {
	ClientID uuid.UUID
	Amount   decimal.Decimal
}

// CatalogAggregate owns seller-driven product invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvariantViolation, CodeConflict, CodeRetryable, CodeInternal.
type CatalogAggregate interface {
	Aggregate

	CreateProduct(ctx context.Context, in CreateProductInput) (ProductResult, error)
	ChangePrice(ctx context.Context, in ChangePriceInput) (ProductResult, error)
	IncreaseStock(ctx context.Context, in AdjustStockInput) (ProductResult, error)
	DecreaseStock(ctx context.Context, in AdjustStockInput) (ProductResult, error)
	SetListing(ctx context.Context, in SetListingInput) (ProductResult, error)

	// DeleteProduct refuses products with stock left.
	DeleteProduct(ctx context.Context, in ProductRefInput) error
}

type CreateProductInput struct {
	SellerID    uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

type ProductRefInput struct {
	SellerID  uuid.UUID
	ProductID uuid.UUID
}

type ChangePriceInput struct {
	SellerID  uuid.UUID
	ProductID uuid.UUID
	Price     decimal.Decimal
}

type AdjustStockInput struct {
	SellerID  uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

type SetListingInput struct {
	SellerID  uuid.UUID
	ProductID uuid.UUID
	Listed    bool
}

type ProductResult struct {
	ProductID     uuid.UUID
	SellerID      uuid.UUID
	Price         decimal.Decimal
	Stock         int
	ListingStatus string
}

// CartAggregate owns cart line invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvariantViolation, CodeConflict, CodeRetryable, CodeInternal.
type CartAggregate interface {
	Aggregate

	AddToCart(ctx context.Context, in CartLineInput) (CartResult, error)
	RemoveFromCart(ctx context.Context, in CartLineInput) (CartResult, error)

	// ChangeQuantity sets the held quantity; Quantity <= 0 removes the line.
	ChangeQuantity(ctx context.Context, in CartLineInput) (CartResult, error)

	SetSelection(ctx context.Context, in CartSelectionInput) (CartResult, error)
	ClearCart(ctx context.Context, clientID uuid.UUID) (CartResult, error)
}

type CartLineInput struct {
	ClientID  uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// CartSelectionInput selects or unselects one line, or every line when
// ProductID is uuid.Nil.
type CartSelectionInput struct {
	ClientID  uuid.UUID
	ProductID uuid.UUID
	Selected  bool
}

type CartResult struct {
	CartID   uuid.UUID
	ClientID uuid.UUID
	Lines    int
	Total    decimal.Decimal
}

// OrderAggregate owns order lifecycle invariants across client, sellers and products.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeForbidden, CodeNotFound, CodeInvariantViolation,
// CodePreconditionFailed, CodeConflict, CodeRetryable, CodeInternal.
type OrderAggregate interface {
	Aggregate

	// PlaceFromCart converts the selected cart lines into a Pending order.
	PlaceFromCart(ctx context.Context, in PlaceFromCartInput) (OrderResult, error)

	// PlaceDirect creates a Pending order for one product, bypassing the cart.
	PlaceDirect(ctx context.Context, in PlaceDirectInput) (OrderResult, error)

	// Pay atomically debits the client, credits each line's seller and removes stock.
	Pay(ctx context.Context, in OrderCommandInput) (OrderResult, error)

	// Cancel atomically reverses Pay.
	Cancel(ctx context.Context, in OrderCommandInput) (OrderResult, error)

	// Advance moves a paid order through shipped, delivered and completed.
	Advance(ctx context.Context, in AdvanceOrderInput) (OrderResult, error)
}

type PlaceFromCartInput struct {
	ClientID uuid.UUID
}

type PlaceDirectInput struct {
	ClientID  uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

type OrderCommandInput struct {
	ClientID uuid.UUID
	OrderID  uuid.UUID
}

type AdvanceOrderInput struct {
	OrderID uuid.UUID
	// shipped|delivered|completed
	ToStatus string
}

type OrderResult struct {
	OrderID      uuid.UUID
	ClientID     uuid.UUID
	Status       string
	TotalAmount  decimal.Decimal
	OrderDate    time.Time
	DeliveryDate *time.Time
}

// ReturnAggregate owns the per-(order, seller) return negotiation.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeForbidden, CodeNotFound, CodeInvariantViolation,
// CodePreconditionFailed, CodeConflict, CodeRetryable, CodeInternal.
type ReturnAggregate interface {
	Aggregate

	// RequestReturn targets a line by (SellerID, ProductID), by LineID, or by
	// ProductID alone when exactly one seller sold it in the order.
	RequestReturn(ctx context.Context, in RequestReturnInput) (ReturnResult, error)

	// ApproveReturn debits the seller, credits the client and restocks in one commit.
	ApproveReturn(ctx context.Context, in SellerReturnInput) (ReturnResult, error)

	RejectReturn(ctx context.Context, in SellerReturnInput) (ReturnResult, error)
}

type RequestReturnInput struct {
	ClientID  uuid.UUID
	OrderID   uuid.UUID
	SellerID  uuid.UUID
	ProductID uuid.UUID
	LineID    uuid.UUID
	Quantity  int
}

type SellerReturnInput struct {
	SellerID uuid.UUID
	OrderID  uuid.UUID
}

type ReturnResult struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
	Status   string
	Refunded decimal.Decimal
}

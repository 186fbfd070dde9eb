package aggregates

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type cartAggregate struct {
	deps MarketplaceDeps
}

func NewCartAggregate(deps MarketplaceDeps) domainagg.CartAggregate {
	return &cartAggregate{deps: deps.withDefaults()}
}

func (a *cartAggregate) Contract() domainagg.Contract {
	return domainagg.CartAggregateContract
}

func (a *cartAggregate) AddToCart(ctx context.Context, in domainagg.CartLineInput) (domainagg.CartResult, error) {
	const op = "Marketplace.Cart.AddToCart"
	qty, err := types.NewQuantity(in.Quantity)
	if err != nil {
		return domainagg.CartResult{}, err
	}
	return a.mutate(ctx, op, in.ClientID, in.ProductID, func(c *types.Client, products types.ProductSet) error {
		p, ok := products[in.ProductID]
		if !ok || p.DeletedAt.Valid {
			return notFound(op, "product", in.ProductID)
		}
		return c.AddToCart(p, qty)
	})
}

func (a *cartAggregate) RemoveFromCart(ctx context.Context, in domainagg.CartLineInput) (domainagg.CartResult, error) {
	const op = "Marketplace.Cart.RemoveFromCart"
	return a.mutate(ctx, op, in.ClientID, uuid.Nil, func(c *types.Client, _ types.ProductSet) error {
		return c.RemoveFromCart(in.ProductID)
	})
}

func (a *cartAggregate) ChangeQuantity(ctx context.Context, in domainagg.CartLineInput) (domainagg.CartResult, error) {
	const op = "Marketplace.Cart.ChangeQuantity"
	return a.mutate(ctx, op, in.ClientID, in.ProductID, func(c *types.Client, products types.ProductSet) error {
		p, ok := products[in.ProductID]
		if !ok {
			return notFound(op, "product", in.ProductID)
		}
		return c.ChangeCartQuantity(p, in.Quantity)
	})
}

func (a *cartAggregate) SetSelection(ctx context.Context, in domainagg.CartSelectionInput) (domainagg.CartResult, error) {
	const op = "Marketplace.Cart.SetSelection"
	return a.mutate(ctx, op, in.ClientID, uuid.Nil, func(c *types.Client, _ types.ProductSet) error {
		switch {
		case in.ProductID == uuid.Nil && in.Selected:
			c.SelectAllForOrder()
			return nil
		case in.ProductID == uuid.Nil:
			c.UnselectAllForOrder()
			return nil
		case in.Selected:
			return c.SelectForOrder(in.ProductID)
		default:
			return c.UnselectForOrder(in.ProductID)
		}
	})
}

func (a *cartAggregate) ClearCart(ctx context.Context, clientID uuid.UUID) (domainagg.CartResult, error) {
	const op = "Marketplace.Cart.ClearCart"
	return a.mutate(ctx, op, clientID, uuid.Nil, func(c *types.Client, _ types.ProductSet) error {
		c.ClearCart()
		return nil
	})
}

// mutate locks the client, its cart and every product the cart touches
// (plus extra), applies fn and rewrites the cart lines.
func (a *cartAggregate) mutate(ctx context.Context, op string, clientID, extra uuid.UUID, fn func(*types.Client, types.ProductSet) error) (domainagg.CartResult, error) {
	var out domainagg.CartResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		c, err := st.client(clientID)
		if err != nil {
			return err
		}
		products, err := st.products(cartProductIDs(c.Cart, extra))
		if err != nil {
			return err
		}
		if err := fn(c, products); err != nil {
			return err
		}
		if err := st.saveCart(c); err != nil {
			return err
		}
		out, err = cartResult(c, products)
		return err
	})
	return out, err
}

func cartResult(c *types.Client, products types.ProductSet) (domainagg.CartResult, error) {
	total, err := c.Cart.TotalPrice(products)
	if err != nil {
		return domainagg.CartResult{}, err
	}
	return domainagg.CartResult{
		CartID:   c.Cart.ID,
		ClientID: c.ID,
		Lines:    len(c.Cart.Lines),
		Total:    total.Decimal(),
	}, nil
}

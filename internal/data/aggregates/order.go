package aggregates

import (
	"context"
	"fmt"
	"strings"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type orderAggregate struct {
	deps MarketplaceDeps
}

func NewOrderAggregate(deps MarketplaceDeps) domainagg.OrderAggregate {
	return &orderAggregate{deps: deps.withDefaults()}
}

func (a *orderAggregate) Contract() domainagg.Contract {
	return domainagg.OrderAggregateContract
}

func (a *orderAggregate) PlaceFromCart(ctx context.Context, in domainagg.PlaceFromCartInput) (domainagg.OrderResult, error) {
	const op = "Marketplace.Order.PlaceFromCart"
	var out domainagg.OrderResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		c, err := st.client(in.ClientID)
		if err != nil {
			return err
		}
		products, err := st.products(cartProductIDs(c.Cart))
		if err != nil {
			return err
		}
		o, err := c.PlaceSelectedOrderFromCart(products)
		if err != nil {
			return err
		}
		if err := a.deps.Repos.Orders.Create(dbc, o); err != nil {
			return err
		}
		if err := st.saveCart(c); err != nil {
			return err
		}
		if err := st.emit(types.EventOrderPlaced, o, nil, nil); err != nil {
			return err
		}
		out = orderResult(o)
		return st.flush()
	})
	return out, err
}

func (a *orderAggregate) PlaceDirect(ctx context.Context, in domainagg.PlaceDirectInput) (domainagg.OrderResult, error) {
	const op = "Marketplace.Order.PlaceDirect"
	var out domainagg.OrderResult
	qty, err := types.NewQuantity(in.Quantity)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		c, err := st.client(in.ClientID)
		if err != nil {
			return err
		}
		p, err := st.liveProduct(in.ProductID)
		if err != nil {
			return err
		}
		o, err := c.PlaceDirectOrder(p, qty)
		if err != nil {
			return err
		}
		if err := a.deps.Repos.Orders.Create(dbc, o); err != nil {
			return err
		}
		if err := st.emit(types.EventOrderPlaced, o, nil, nil); err != nil {
			return err
		}
		out = orderResult(o)
		return st.flush()
	})
	return out, err
}

func (a *orderAggregate) Pay(ctx context.Context, in domainagg.OrderCommandInput) (domainagg.OrderResult, error) {
	const op = "Marketplace.Order.Pay"
	out, err := a.settle(ctx, op, in, types.EventOrderPaid, func(c *types.Client, o *types.Order, products types.ProductSet, sellers types.SellerSet) error {
		return c.Pay(o, products, sellers)
	})
	if err == nil {
		a.deps.Base.Log.Info("order paid", "order_id", out.OrderID.String(), "client_id", out.ClientID.String(), "total", out.TotalAmount.StringFixed(2))
	}
	return out, err
}

func (a *orderAggregate) Cancel(ctx context.Context, in domainagg.OrderCommandInput) (domainagg.OrderResult, error) {
	const op = "Marketplace.Order.Cancel"
	out, err := a.settle(ctx, op, in, types.EventOrderCancelled, func(c *types.Client, o *types.Order, products types.ProductSet, sellers types.SellerSet) error {
		return c.Cancel(o, products, sellers)
	})
	if err == nil {
		a.deps.Base.Log.Info("order cancelled", "order_id", out.OrderID.String(), "client_id", out.ClientID.String())
	}
	return out, err
}

// settle runs a money-moving order command: lock order, client, the order's
// sellers and products in that order, apply fn and persist all of them.
func (a *orderAggregate) settle(
	ctx context.Context,
	op string,
	in domainagg.OrderCommandInput,
	event string,
	fn func(*types.Client, *types.Order, types.ProductSet, types.SellerSet) error,
) (domainagg.OrderResult, error) {
	var out domainagg.OrderResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		o, err := st.order(in.OrderID)
		if err != nil {
			return err
		}
		c, err := st.client(in.ClientID)
		if err != nil {
			return err
		}
		sellerIDs := orderSellerIDs(o)
		sellers, err := st.sellers(sellerIDs)
		if err != nil {
			return err
		}
		productIDs := orderProductIDs(o)
		products, err := st.products(productIDs)
		if err != nil {
			return err
		}

		if err := fn(c, o, products, sellers); err != nil {
			return err
		}

		if err := st.saveClient(c); err != nil {
			return err
		}
		if err := st.saveSellers(sellers, sellerIDs); err != nil {
			return err
		}
		if err := st.saveProducts(products, productIDs); err != nil {
			return err
		}
		if err := st.saveOrder(o); err != nil {
			return err
		}
		if err := st.emit(event, o, nil, nil); err != nil {
			return err
		}
		out = orderResult(o)
		return st.flush()
	})
	return out, err
}

func (a *orderAggregate) Advance(ctx context.Context, in domainagg.AdvanceOrderInput) (domainagg.OrderResult, error) {
	const op = "Marketplace.Order.Advance"
	var out domainagg.OrderResult
	to := types.OrderStatus(strings.ToLower(strings.TrimSpace(in.ToStatus)))
	var event string
	switch to {
	case types.OrderShipped:
		event = types.EventOrderShipped
	case types.OrderDelivered:
		event = types.EventOrderDelivered
	case types.OrderCompleted:
		event = types.EventOrderCompleted
	default:
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("cannot advance to %q", in.ToStatus), nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		o, err := st.order(in.OrderID)
		if err != nil {
			return err
		}
		switch to {
		case types.OrderShipped:
			err = o.MarkShipped()
		case types.OrderDelivered:
			err = o.MarkDelivered()
		case types.OrderCompleted:
			err = o.MarkCompleted()
		}
		if err != nil {
			return err
		}
		if err := st.saveOrder(o); err != nil {
			return err
		}
		if err := st.emit(event, o, nil, nil); err != nil {
			return err
		}
		out = orderResult(o)
		return st.flush()
	})
	return out, err
}

func orderResult(o *types.Order) domainagg.OrderResult {
	return domainagg.OrderResult{
		OrderID:      o.ID,
		ClientID:     o.ClientID,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount.Decimal(),
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
	}
}

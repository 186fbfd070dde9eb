package aggregates

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type returnAggregate struct {
	deps MarketplaceDeps
}

func NewReturnAggregate(deps MarketplaceDeps) domainagg.ReturnAggregate {
	return &returnAggregate{deps: deps.withDefaults()}
}

func (a *returnAggregate) Contract() domainagg.Contract {
	return domainagg.ReturnAggregateContract
}

func (a *returnAggregate) RequestReturn(ctx context.Context, in domainagg.RequestReturnInput) (domainagg.ReturnResult, error) {
	const op = "Marketplace.Return.RequestReturn"
	var out domainagg.ReturnResult
	qty, err := types.NewQuantity(in.Quantity)
	if err != nil {
		return out, err
	}
	if in.LineID == uuid.Nil && in.ProductID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "line_id or product_id is required", nil)
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		o, err := st.order(in.OrderID)
		if err != nil {
			return err
		}
		c, err := st.client(in.ClientID)
		if err != nil {
			return err
		}

		sellerID := in.SellerID
		switch {
		case in.LineID != uuid.Nil:
			if err := c.RequestLineReturn(o, in.LineID, qty); err != nil {
				return err
			}
			l, _ := o.LineByID(in.LineID)
			sellerID = l.SellerID
		case in.SellerID != uuid.Nil:
			if err := c.RequestReturn(o, in.SellerID, in.ProductID, qty); err != nil {
				return err
			}
		default:
			if err := c.RequestProductReturn(o, in.ProductID, qty); err != nil {
				return err
			}
			sellerID = o.SellersForProduct(in.ProductID)[0]
		}

		if err := st.saveOrder(o); err != nil {
			return err
		}
		if err := st.emit(types.EventOrderReturnRequested, o, &sellerID, nil); err != nil {
			return err
		}
		out = returnResult(o, sellerID, types.ZeroMoney())
		return st.flush()
	})
	return out, err
}

func (a *returnAggregate) ApproveReturn(ctx context.Context, in domainagg.SellerReturnInput) (domainagg.ReturnResult, error) {
	const op = "Marketplace.Return.ApproveReturn"
	var out domainagg.ReturnResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		o, err := st.order(in.OrderID)
		if err != nil {
			return err
		}
		c, err := st.client(o.ClientID)
		if err != nil {
			return err
		}
		s, err := st.seller(in.SellerID, false)
		if err != nil {
			return err
		}
		var productIDs []uuid.UUID
		for _, l := range o.LinesForSeller(s.ID) {
			productIDs = append(productIDs, l.ProductID)
		}
		products, err := st.products(productIDs)
		if err != nil {
			return err
		}

		before := s.Balance
		if err := s.ApproveOrderReturn(o, c, products); err != nil {
			return err
		}
		refund, err := before.Sub(s.Balance)
		if err != nil {
			return err
		}

		if err := st.saveClient(c); err != nil {
			return err
		}
		if err := st.saveSeller(s); err != nil {
			return err
		}
		if err := st.saveProducts(products, productIDs); err != nil {
			return err
		}
		if err := st.saveOrder(o); err != nil {
			return err
		}
		if err := st.emit(types.EventOrderReturnRefunded, o, &s.ID, &refund); err != nil {
			return err
		}
		out = returnResult(o, s.ID, refund)
		return st.flush()
	})
	if err == nil {
		a.deps.Base.Log.Info("return refunded", "order_id", in.OrderID.String(), "seller_id", in.SellerID.String(), "refunded", out.Refunded.StringFixed(2))
	}
	return out, err
}

func (a *returnAggregate) RejectReturn(ctx context.Context, in domainagg.SellerReturnInput) (domainagg.ReturnResult, error) {
	const op = "Marketplace.Return.RejectReturn"
	var out domainagg.ReturnResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		o, err := st.order(in.OrderID)
		if err != nil {
			return err
		}
		s, err := st.seller(in.SellerID, false)
		if err != nil {
			return err
		}
		if err := s.RejectOrderReturn(o); err != nil {
			return err
		}
		if err := st.saveOrder(o); err != nil {
			return err
		}
		if err := st.emit(types.EventOrderReturnRejected, o, &s.ID, nil); err != nil {
			return err
		}
		out = returnResult(o, s.ID, types.ZeroMoney())
		return st.flush()
	})
	return out, err
}

func returnResult(o *types.Order, sellerID uuid.UUID, refunded types.Money) domainagg.ReturnResult {
	return domainagg.ReturnResult{
		OrderID:  o.ID,
		SellerID: sellerID,
		Status:   string(o.ReturnStatusFor(sellerID)),
		Refunded: refunded.Decimal(),
	}
}

package aggregates

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type catalogAggregate struct {
	deps MarketplaceDeps
}

func NewCatalogAggregate(deps MarketplaceDeps) domainagg.CatalogAggregate {
	return &catalogAggregate{deps: deps.withDefaults()}
}

func (a *catalogAggregate) Contract() domainagg.Contract {
	return domainagg.CatalogAggregateContract
}

func (a *catalogAggregate) CreateProduct(ctx context.Context, in domainagg.CreateProductInput) (domainagg.ProductResult, error) {
	const op = "Marketplace.Catalog.CreateProduct"
	var out domainagg.ProductResult
	name, err := types.NewProductName(in.Name)
	if err != nil {
		return out, err
	}
	desc, err := types.NewDescription(in.Description)
	if err != nil {
		return out, err
	}
	price, err := types.NewMoney(in.Price)
	if err != nil {
		return out, err
	}
	stock, err := types.NewQuantity(in.Stock)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		s, err := st.seller(in.SellerID, true)
		if err != nil {
			return err
		}
		p, err := s.CreateProduct(name, desc, price, stock)
		if err != nil {
			return err
		}
		if _, err := a.deps.Repos.Products.Create(dbc, []*types.Product{p}); err != nil {
			return err
		}
		out = productResult(p)
		return nil
	})
	return out, err
}

func (a *catalogAggregate) ChangePrice(ctx context.Context, in domainagg.ChangePriceInput) (domainagg.ProductResult, error) {
	const op = "Marketplace.Catalog.ChangePrice"
	price, err := types.NewMoney(in.Price)
	if err != nil {
		return domainagg.ProductResult{}, err
	}
	return a.mutate(ctx, op, in.SellerID, in.ProductID, func(s *types.Seller, p *types.Product) error {
		return s.ChangeProductPrice(p, price)
	}, nil)
}

func (a *catalogAggregate) IncreaseStock(ctx context.Context, in domainagg.AdjustStockInput) (domainagg.ProductResult, error) {
	const op = "Marketplace.Catalog.IncreaseStock"
	qty, err := types.NewQuantity(in.Quantity)
	if err != nil {
		return domainagg.ProductResult{}, err
	}
	return a.mutate(ctx, op, in.SellerID, in.ProductID, func(s *types.Seller, p *types.Product) error {
		return s.ReplenishProduct(p, qty)
	}, nil)
}

func (a *catalogAggregate) DecreaseStock(ctx context.Context, in domainagg.AdjustStockInput) (domainagg.ProductResult, error) {
	const op = "Marketplace.Catalog.DecreaseStock"
	qty, err := types.NewQuantity(in.Quantity)
	if err != nil {
		return domainagg.ProductResult{}, err
	}
	return a.mutate(ctx, op, in.SellerID, in.ProductID, func(s *types.Seller, p *types.Product) error {
		return s.ReduceProductStock(p, qty)
	}, nil)
}

func (a *catalogAggregate) SetListing(ctx context.Context, in domainagg.SetListingInput) (domainagg.ProductResult, error) {
	const op = "Marketplace.Catalog.SetListing"
	return a.mutate(ctx, op, in.SellerID, in.ProductID, func(s *types.Seller, p *types.Product) error {
		if in.Listed {
			return s.ListProduct(p)
		}
		return s.UnlistProduct(p)
	}, nil)
}

func (a *catalogAggregate) DeleteProduct(ctx context.Context, in domainagg.ProductRefInput) error {
	const op = "Marketplace.Catalog.DeleteProduct"
	_, err := a.mutate(ctx, op, in.SellerID, in.ProductID, func(s *types.Seller, p *types.Product) error {
		return s.DeleteProduct(p)
	}, a.deps.Repos.Products.Delete)
	if err == nil {
		a.deps.Base.Log.Info("product deleted", "seller_id", in.SellerID.String(), "product_id", in.ProductID.String())
	}
	return err
}

// mutate runs one seller-driven product change: lock seller then product,
// apply fn, save the product, then run after (if any) in the same transaction.
func (a *catalogAggregate) mutate(
	ctx context.Context,
	op string,
	sellerID, productID uuid.UUID,
	fn func(*types.Seller, *types.Product) error,
	after func(dbctx.Context, uuid.UUID) error,
) (domainagg.ProductResult, error) {
	var out domainagg.ProductResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		s, err := st.seller(sellerID, true)
		if err != nil {
			return err
		}
		p, err := st.liveProduct(productID)
		if err != nil {
			return err
		}
		if err := fn(s, p); err != nil {
			return err
		}
		if err := st.saveProduct(p); err != nil {
			return err
		}
		if after != nil {
			if err := after(dbc, p.ID); err != nil {
				return err
			}
		}
		out = productResult(p)
		return nil
	})
	return out, err
}

func productResult(p *types.Product) domainagg.ProductResult {
	return domainagg.ProductResult{
		ProductID:     p.ID,
		SellerID:      p.SellerID,
		Price:         p.Price.Decimal(),
		Stock:         p.Stock,
		ListingStatus: string(p.ListingStatus),
	}
}

package aggregates

import (
	"github.com/google/uuid"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

// store loads and saves marketplace aggregates inside one transaction.
// Loads lock rows; callers follow the order -> client -> sellers -> products
// lock order.
type store struct {
	dbc   dbctx.Context
	repos repos.Set
	cas   CASGuard
	op    string

	events []*types.OrderEvent
}

func newStore(dbc dbctx.Context, deps MarketplaceDeps, op string) *store {
	return &store{dbc: dbc, repos: deps.Repos, cas: deps.Base.CASGuard, op: op}
}

// client locks the client row and assembles its cart and purchase history.
func (s *store) client(id uuid.UUID) (*types.Client, error) {
	if id == uuid.Nil {
		return nil, ValidationError("missing client_id")
	}
	c, err := s.repos.Clients.LockByID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound(s.op, "client", id)
	}
	cart, err := s.repos.Carts.LockByClientID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = types.NewCart(id)
		if err := s.repos.Carts.Create(s.dbc, cart); err != nil {
			return nil, err
		}
	}
	c.Cart = cart
	history, err := s.repos.Orders.ListIDsByClientID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	c.PurchaseHistory = history
	return c, nil
}

// seller locks one seller; withCatalog also loads its product ids.
func (s *store) seller(id uuid.UUID, withCatalog bool) (*types.Seller, error) {
	if id == uuid.Nil {
		return nil, ValidationError("missing seller_id")
	}
	row, err := s.repos.Sellers.LockByID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound(s.op, "seller", id)
	}
	if withCatalog {
		ids, err := s.repos.Products.ListIDsBySeller(s.dbc, id)
		if err != nil {
			return nil, err
		}
		row.Products = ids
	}
	return row, nil
}

// sellers locks every seller id it can find. Missing ids are left out of the
// set; the domain reports them when it needs one.
func (s *store) sellers(ids []uuid.UUID) (types.SellerSet, error) {
	rows, err := s.repos.Sellers.LockByIDs(s.dbc, ids)
	if err != nil {
		return nil, err
	}
	return types.NewSellerSet(rows...), nil
}

func (s *store) products(ids []uuid.UUID) (types.ProductSet, error) {
	rows, err := s.repos.Products.LockByIDs(s.dbc, ids)
	if err != nil {
		return nil, err
	}
	return types.NewProductSet(rows...), nil
}

// liveProduct locks one product that has not been deleted.
func (s *store) liveProduct(id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, ValidationError("missing product_id")
	}
	p, err := s.repos.Products.LockByID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.DeletedAt.Valid {
		return nil, notFound(s.op, "product", id)
	}
	return p, nil
}

func (s *store) order(id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, ValidationError("missing order_id")
	}
	o, err := s.repos.Orders.LockByID(s.dbc, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, notFound(s.op, "order", id)
	}
	return o, nil
}

func orderProductIDs(o *types.Order) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, l.ProductID)
	}
	return out
}

func orderSellerIDs(o *types.Order) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, l.SellerID)
	}
	return out
}

func cartProductIDs(c *types.Cart, extra ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Lines)+len(extra))
	for _, l := range c.Lines {
		out = append(out, l.ProductID)
	}
	return append(out, extra...)
}

func (s *store) saveClient(c *types.Client) error {
	next, err := s.cas.SaveVersioned(s.dbc, "client", c.ID, c.Version, map[string]any{
		"username": c.Username,
		"balance":  c.Balance,
	})
	if err != nil {
		return err
	}
	c.Version = next
	return nil
}

func (s *store) saveSeller(row *types.Seller) error {
	next, err := s.cas.SaveVersioned(s.dbc, "seller", row.ID, row.Version, map[string]any{
		"username": row.Username,
		"balance":  row.Balance,
	})
	if err != nil {
		return err
	}
	row.Version = next
	return nil
}

func (s *store) saveSellers(set types.SellerSet, ids []uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		row, ok := set[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if err := s.saveSeller(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) saveProduct(p *types.Product) error {
	next, err := s.cas.SaveVersioned(s.dbc, "product", p.ID, p.Version, map[string]any{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"stock":          p.Stock,
		"listing_status": p.ListingStatus,
	})
	if err != nil {
		return err
	}
	p.Version = next
	return nil
}

func (s *store) saveProducts(set types.ProductSet, ids []uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		p, ok := set[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if err := s.saveProduct(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) saveCart(c *types.Client) error {
	if c.Cart == nil {
		return nil
	}
	return s.repos.Carts.ReplaceLines(s.dbc, c.Cart.ID, c.Cart.Lines)
}

// saveOrder writes the header under its version, the pay-time capture on the
// lines and both return row sets.
func (s *store) saveOrder(o *types.Order) error {
	next, err := s.cas.SaveVersioned(s.dbc, "market_order", o.ID, o.Version, map[string]any{
		"status":        o.Status,
		"total_amount":  o.TotalAmount,
		"delivery_date": o.DeliveryDate,
	})
	if err != nil {
		return err
	}
	o.Version = next
	if err := s.repos.Orders.SaveLines(s.dbc, o.Lines); err != nil {
		return err
	}
	return s.repos.Orders.ReplaceReturnRows(s.dbc, o.ID, o.ReturnRequests, o.ReturnStatuses)
}

// emit queues an outbox row; flush writes the queue before commit.
func (s *store) emit(kind string, o *types.Order, sellerID *uuid.UUID, refunded *types.Money) error {
	ev, err := types.NewOrderEvent(kind, o, sellerID, refunded)
	if err != nil {
		return err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *store) flush() error {
	if len(s.events) == 0 {
		return nil
	}
	err := s.repos.OrderEvents.Append(s.dbc, s.events)
	s.events = nil
	return err
}

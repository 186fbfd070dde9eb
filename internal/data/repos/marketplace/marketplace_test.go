package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/marketplace-backend/internal/data/repos/testutil"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

func TestAccountRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	clients := NewClientRepo(db, testutil.Logger(t))
	sellers := NewSellerRepo(db, testutil.Logger(t))

	c := testutil.SeedClient(t, ctx, tx, "alice", "50.00")
	s1 := testutil.SeedSeller(t, ctx, tx, "shop-one", "0")
	s2 := testutil.SeedSeller(t, ctx, tx, "shop-two", "0")

	got, err := clients.GetByID(dbc, c.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.Balance.String() != "50.00" {
		t.Fatalf("balance: want=50.00 got=%s", got.Balance)
	}
	if byName, err := clients.GetByUsername(dbc, " alice "); err != nil || byName == nil || byName.ID != c.ID {
		t.Fatalf("GetByUsername: err=%v row=%v", err, byName)
	}
	if missing, err := clients.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v row=%v", err, missing)
	}
	if locked, err := clients.LockByID(dbc, c.ID); err != nil || locked == nil {
		t.Fatalf("LockByID: err=%v row=%v", err, locked)
	}

	rows, err := sellers.LockByIDs(dbc, []uuid.UUID{s2.ID, s1.ID, s2.ID, uuid.Nil})
	if err != nil {
		t.Fatalf("LockByIDs: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("LockByIDs: want=2 got=%d", len(rows))
	}
	if rows[0].ID.String() > rows[1].ID.String() {
		t.Fatalf("LockByIDs: rows not in id order")
	}
	if list, err := sellers.List(dbc, 1, 0); err != nil || len(list) != 1 {
		t.Fatalf("List limit: err=%v len=%d", err, len(list))
	}
}

func TestProductRepoSoftDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewProductRepo(db, testutil.Logger(t))
	s := testutil.SeedSeller(t, ctx, tx, "shop", "0")
	keep := testutil.SeedProduct(t, ctx, tx, s, "lamp", "10.00", 3)
	gone := testutil.SeedProduct(t, ctx, tx, s, "chair", "25.50", 1)

	got, err := repo.GetByID(dbc, keep.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.Price.String() != "10.00" || got.Stock != 3 || got.Name.String() != "lamp" {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	if err := repo.Delete(dbc, gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, err := repo.ListIDsBySeller(dbc, s.ID)
	if err != nil {
		t.Fatalf("ListIDsBySeller: %v", err)
	}
	if len(ids) != 1 || ids[0] != keep.ID {
		t.Fatalf("ListIDsBySeller: want=[%s] got=%v", keep.ID, ids)
	}
	if row, err := repo.GetByID(dbc, gone.ID); err != nil || row != nil {
		t.Fatalf("GetByID deleted: err=%v row=%v", err, row)
	}
	locked, err := repo.LockByID(dbc, gone.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID deleted: err=%v row=%v", err, locked)
	}

	if err := tx.WithContext(ctx).Model(&types.Product{}).Where("id = ?", keep.ID).Update("stock", 0).Error; err != nil {
		t.Fatalf("zero stock: %v", err)
	}
	avail, err := repo.List(dbc, ProductFilter{SellerID: s.ID, AvailableOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(avail) != 0 {
		t.Fatalf("List available: want=0 got=%d", len(avail))
	}
}

func TestCartRepoReplaceLinesKeepsOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewCartRepo(db, testutil.Logger(t))
	c := testutil.SeedClient(t, ctx, tx, "bob", "100")
	s := testutil.SeedSeller(t, ctx, tx, "shop", "0")
	a := testutil.SeedProduct(t, ctx, tx, s, "a", "1.00", 5)
	b := testutil.SeedProduct(t, ctx, tx, s, "b", "2.00", 5)

	cart, err := repo.GetByClientID(dbc, c.ID)
	if err != nil || cart == nil {
		t.Fatalf("GetByClientID: err=%v cart=%v", err, cart)
	}
	if err := cart.AddProduct(b, types.MustQuantity(2)); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := cart.AddProduct(a, types.MustQuantity(1)); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := cart.SelectForBuy(a.ID); err != nil {
		t.Fatalf("select a: %v", err)
	}
	if err := repo.ReplaceLines(dbc, cart.ID, cart.Lines); err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}

	reloaded, err := repo.LockByClientID(dbc, c.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("LockByClientID: err=%v cart=%v", err, reloaded)
	}
	if len(reloaded.Lines) != 2 {
		t.Fatalf("lines: want=2 got=%d", len(reloaded.Lines))
	}
	if reloaded.Lines[0].ProductID != b.ID || reloaded.Lines[1].ProductID != a.ID {
		t.Fatalf("line order: want=[b a] got=[%s %s]", reloaded.Lines[0].ProductID, reloaded.Lines[1].ProductID)
	}
	if !reloaded.Lines[1].IsSelected() || reloaded.Lines[0].IsSelected() {
		t.Fatalf("selection not persisted")
	}

	if err := repo.ReplaceLines(dbc, cart.ID, nil); err != nil {
		t.Fatalf("ReplaceLines empty: %v", err)
	}
	emptied, err := repo.GetByClientID(dbc, c.ID)
	if err != nil || len(emptied.Lines) != 0 {
		t.Fatalf("emptied: err=%v lines=%d", err, len(emptied.Lines))
	}
}

func TestOrderRepoRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewOrderRepo(db, testutil.Logger(t))
	c := testutil.SeedClient(t, ctx, tx, "carol", "100")
	s1 := testutil.SeedSeller(t, ctx, tx, "one", "0")
	s2 := testutil.SeedSeller(t, ctx, tx, "two", "0")
	a := testutil.SeedProduct(t, ctx, tx, s1, "a", "3.00", 5)
	b := testutil.SeedProduct(t, ctx, tx, s2, "b", "4.00", 5)

	if err := c.AddToCart(a, types.MustQuantity(2)); err != nil {
		t.Fatalf("cart a: %v", err)
	}
	if err := c.AddToCart(b, types.MustQuantity(1)); err != nil {
		t.Fatalf("cart b: %v", err)
	}
	c.SelectAllForOrder()
	o, err := c.PlaceSelectedOrderFromCart(types.NewProductSet(a, b))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := repo.Create(dbc, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, o.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if len(got.Lines) != 2 || got.Lines[0].ProductID != a.ID || got.Lines[0].Quantity.Int() != 2 {
		t.Fatalf("lines: %+v", got.Lines)
	}
	if got.Lines[1].SellerID != s2.ID {
		t.Fatalf("captured seller: want=%s got=%s", s2.ID, got.Lines[1].SellerID)
	}
	if got.TotalAmount.String() != "10.00" || got.Status != types.OrderPending {
		t.Fatalf("header: total=%s status=%s", got.TotalAmount, got.Status)
	}

	got.Lines[0].PaidUnitPrice = types.MustMoney("3.00")
	if err := repo.SaveLines(dbc, got.Lines); err != nil {
		t.Fatalf("SaveLines: %v", err)
	}
	states := []types.ReturnState{{ID: uuid.New(), SellerID: s1.ID, Status: types.ReturnRequested}}
	requests := []types.ReturnRequest{{ID: uuid.New(), SellerID: s1.ID, ProductID: a.ID, Quantity: types.MustQuantity(1)}}
	if err := repo.ReplaceReturnRows(dbc, o.ID, requests, states); err != nil {
		t.Fatalf("ReplaceReturnRows: %v", err)
	}

	locked, err := repo.LockByID(dbc, o.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID: err=%v row=%v", err, locked)
	}
	if locked.Lines[0].PaidUnitPrice.String() != "3.00" {
		t.Fatalf("paid unit price: want=3.00 got=%s", locked.Lines[0].PaidUnitPrice)
	}
	if locked.ReturnStatusFor(s1.ID) != types.ReturnRequested || locked.ReturnStatusFor(s2.ID) != types.ReturnNone {
		t.Fatalf("return statuses: %v", locked.ReturnStatusesView())
	}
	if q := locked.ReturnRequestsView()[types.ReturnKey{SellerID: s1.ID, ProductID: a.ID}]; q.Int() != 1 {
		t.Fatalf("return request qty: want=1 got=%d", q.Int())
	}

	byClient, err := repo.ListIDsByClientID(dbc, c.ID)
	if err != nil || len(byClient) != 1 || byClient[0] != o.ID {
		t.Fatalf("ListIDsByClientID: err=%v ids=%v", err, byClient)
	}
	bySeller, err := repo.ListBySellerID(dbc, s2.ID)
	if err != nil || len(bySeller) != 1 || len(bySeller[0].Lines) != 2 {
		t.Fatalf("ListBySellerID: err=%v rows=%d", err, len(bySeller))
	}
	if none, err := repo.ListBySellerID(dbc, uuid.New()); err != nil || len(none) != 0 {
		t.Fatalf("ListBySellerID other: err=%v rows=%d", err, len(none))
	}
}

func TestOrderRepoListsClientHistoryInPlacementOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewOrderRepo(db, testutil.Logger(t))
	c := testutil.SeedClient(t, ctx, tx, "dana", "100")
	s := testutil.SeedSeller(t, ctx, tx, "shop", "0")
	p := testutil.SeedProduct(t, ctx, tx, s, "p", "1.00", 10)

	// Same timestamp for every order, ids sorting opposite to placement.
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ids := []string{
		"30000000-0000-0000-0000-000000000000",
		"20000000-0000-0000-0000-000000000000",
		"10000000-0000-0000-0000-000000000000",
	}
	var placed []*types.Order
	for _, raw := range ids {
		o, err := c.PlaceDirectOrder(p, types.MustQuantity(1))
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		o.ID = uuid.MustParse(raw)
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
		}
		o.OrderDate = at
		placed = append(placed, o)
	}
	for i := len(placed) - 1; i >= 0; i-- {
		if err := repo.Create(dbc, placed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	gotIDs, err := repo.ListIDsByClientID(dbc, c.ID)
	if err != nil || len(gotIDs) != 3 {
		t.Fatalf("ListIDsByClientID: err=%v ids=%v", err, gotIDs)
	}
	rows, err := repo.ListByClientID(dbc, c.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByClientID: err=%v rows=%d", err, len(rows))
	}
	for i, o := range placed {
		if gotIDs[i] != o.ID || rows[i].ID != o.ID || rows[i].HistorySeq != i+1 {
			t.Fatalf("history[%d]: want=%s seq=%d got id=%s row=%s seq=%d", i, o.ID, i+1, gotIDs[i], rows[i].ID, rows[i].HistorySeq)
		}
	}
}

func TestOrderEventRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewOrderEventRepo(db, testutil.Logger(t))
	o := &types.Order{ID: uuid.New(), ClientID: uuid.New(), Status: types.OrderPaid, TotalAmount: types.MustMoney("1")}

	first, err := types.NewOrderEvent(types.EventOrderPlaced, o, nil, nil)
	if err != nil {
		t.Fatalf("NewOrderEvent: %v", err)
	}
	second, err := types.NewOrderEvent(types.EventOrderPaid, o, nil, nil)
	if err != nil {
		t.Fatalf("NewOrderEvent: %v", err)
	}
	second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
	if err := repo.Append(dbc, []*types.OrderEvent{first, second}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	pending, err := repo.LockPending(dbc, 10, 3)
	if err != nil {
		t.Fatalf("LockPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("LockPending: want first of 2, got %d rows", len(pending))
	}

	if err := repo.MarkPublished(dbc, []uuid.UUID{first.ID}, time.Now()); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.MarkFailed(dbc, second.ID, "redis down", 2); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}

	rows, err := repo.ListByOrderID(dbc, o.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByOrderID: err=%v rows=%d", err, len(rows))
	}
	if rows[0].Status != types.EventStatusPublished || rows[0].PublishedAt == nil {
		t.Fatalf("first: status=%s published_at=%v", rows[0].Status, rows[0].PublishedAt)
	}
	if rows[1].Status != types.EventStatusFailed || rows[1].Attempts != 2 || rows[1].LastError != "redis down" {
		t.Fatalf("second: status=%s attempts=%d err=%q", rows[1].Status, rows[1].Attempts, rows[1].LastError)
	}
	if pending, err := repo.LockPending(dbc, 10, 3); err != nil || len(pending) != 0 {
		t.Fatalf("LockPending after: err=%v rows=%d", err, len(pending))
	}
}

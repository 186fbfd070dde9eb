package marketplace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type OrderRepo interface {
	// Create inserts the order header, its lines and any return rows.
	Create(dbc dbctx.Context, order *types.Order) error

	// GetByID and LockByID return the order with lines and return rows.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)

	ListByClientID(dbc dbctx.Context, clientID uuid.UUID) ([]*types.Order, error)
	ListIDsByClientID(dbc dbctx.Context, clientID uuid.UUID) ([]uuid.UUID, error)
	ListBySellerID(dbc dbctx.Context, sellerID uuid.UUID) ([]*types.Order, error)

	// SaveLines persists the pay-time capture on each line.
	SaveLines(dbc dbctx.Context, lines []types.OrderLine) error

	// ReplaceReturnRows rewrites both return row sets of an order.
	ReplaceReturnRows(dbc dbctx.Context, orderID uuid.UUID, requests []types.ReturnRequest, states []types.ReturnState) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (r *orderRepo) Create(dbc dbctx.Context, order *types.Order) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if order == nil {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).Create(order).Error; err != nil {
		return err
	}
	if len(order.Lines) > 0 {
		if err := t.WithContext(dbc.Ctx).Create(&order.Lines).Error; err != nil {
			return err
		}
	}
	return r.ReplaceReturnRows(dbctx.Context{Ctx: dbc.Ctx, Tx: t}, order.ID, order.ReturnRequests, order.ReturnStatuses)
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	return r.loadOne(dbc, id, false)
}

func (r *orderRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	return r.loadOne(dbc, id, true)
}

func (r *orderRepo) loadOne(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Order
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	out := []*types.Order{&row}
	if err := r.attachChildren(t.WithContext(dbc.Ctx), out); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *orderRepo) ListByClientID(dbc dbctx.Context, clientID uuid.UUID) ([]*types.Order, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Order
	if clientID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("client_id = ?", clientID).
		Order("history_seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.attachChildren(t.WithContext(dbc.Ctx), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) ListIDsByClientID(dbc dbctx.Context, clientID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if clientID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Model(&types.Order{}).
		Where("client_id = ?", clientID).
		Order("history_seq ASC").
		Pluck("id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) ListBySellerID(dbc dbctx.Context, sellerID uuid.UUID) ([]*types.Order, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Order
	if sellerID == uuid.Nil {
		return out, nil
	}
	sub := t.WithContext(dbc.Ctx).
		Model(&types.OrderLine{}).
		Select("order_id").
		Where("seller_id = ?", sellerID)
	if err := t.WithContext(dbc.Ctx).
		Where("id IN (?)", sub).
		Order("order_date ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if err := r.attachChildren(t.WithContext(dbc.Ctx), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) SaveLines(dbc dbctx.Context, lines []types.OrderLine) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	for _, l := range lines {
		if l.ID == uuid.Nil {
			continue
		}
		if err := t.WithContext(dbc.Ctx).
			Model(&types.OrderLine{}).
			Where("id = ?", l.ID).
			Updates(map[string]interface{}{
				"paid_unit_price": l.PaidUnitPrice,
				"updated_at":      now,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) ReplaceReturnRows(dbc dbctx.Context, orderID uuid.UUID, requests []types.ReturnRequest, states []types.ReturnState) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orderID == uuid.Nil {
		return nil
	}
	db := t.WithContext(dbc.Ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&types.ReturnRequest{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", orderID).Delete(&types.ReturnState{}).Error; err != nil {
		return err
	}
	if len(requests) > 0 {
		rows := make([]types.ReturnRequest, len(requests))
		for i, req := range requests {
			req.OrderID = orderID
			rows[i] = req
		}
		if err := db.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(states) > 0 {
		rows := make([]types.ReturnState, len(states))
		for i, st := range states {
			st.OrderID = orderID
			rows[i] = st
		}
		if err := db.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) attachChildren(db *gorm.DB, orders []*types.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	byID := make(map[uuid.UUID]*types.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Lines = nil
		o.ReturnRequests = nil
		o.ReturnStatuses = nil
	}

	var lines []types.OrderLine
	if err := db.Where("order_id IN ?", ids).Order("order_id ASC, position ASC").Find(&lines).Error; err != nil {
		return err
	}
	for _, l := range lines {
		byID[l.OrderID].Lines = append(byID[l.OrderID].Lines, l)
	}

	var requests []types.ReturnRequest
	if err := db.Where("order_id IN ?", ids).Order("created_at ASC, id ASC").Find(&requests).Error; err != nil {
		return err
	}
	for _, rr := range requests {
		byID[rr.OrderID].ReturnRequests = append(byID[rr.OrderID].ReturnRequests, rr)
	}

	var states []types.ReturnState
	if err := db.Where("order_id IN ?", ids).Order("created_at ASC, id ASC").Find(&states).Error; err != nil {
		return err
	}
	for _, st := range states {
		byID[st.OrderID].ReturnStatuses = append(byID[st.OrderID].ReturnStatuses, st)
	}
	return nil
}

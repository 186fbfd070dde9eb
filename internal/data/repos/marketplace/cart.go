package marketplace

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type CartRepo interface {
	// Create inserts the cart header and its current lines.
	Create(dbc dbctx.Context, cart *types.Cart) error

	// GetByClientID loads the cart with its lines in position order.
	GetByClientID(dbc dbctx.Context, clientID uuid.UUID) (*types.Cart, error)
	LockByClientID(dbc dbctx.Context, clientID uuid.UUID) (*types.Cart, error)

	// ReplaceLines rewrites the cart's line set to exactly lines.
	ReplaceLines(dbc dbctx.Context, cartID uuid.UUID, lines []types.CartLine) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return &cartRepo{db: db, log: baseLog.With("repo", "CartRepo")}
}

func (r *cartRepo) Create(dbc dbctx.Context, cart *types.Cart) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if cart == nil {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).Create(cart).Error; err != nil {
		return err
	}
	return r.ReplaceLines(dbctx.Context{Ctx: dbc.Ctx, Tx: t}, cart.ID, cart.Lines)
}

func (r *cartRepo) GetByClientID(dbc dbctx.Context, clientID uuid.UUID) (*types.Cart, error) {
	return r.load(dbc, clientID, false)
}

func (r *cartRepo) LockByClientID(dbc dbctx.Context, clientID uuid.UUID) (*types.Cart, error) {
	return r.load(dbc, clientID, true)
}

func (r *cartRepo) load(dbc dbctx.Context, clientID uuid.UUID, lock bool) (*types.Cart, error) {
	if clientID == uuid.Nil {
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
	var cart types.Cart
	if err := q.Where("client_id = ?", clientID).Limit(1).Find(&cart).Error; err != nil {
		return nil, err
	}
	if cart.ID == uuid.Nil {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("cart_id = ?", cart.ID).
		Order("position ASC").
		Find(&cart.Lines).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) ReplaceLines(dbc dbctx.Context, cartID uuid.UUID, lines []types.CartLine) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if cartID == uuid.Nil {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).Where("cart_id = ?", cartID).Delete(&types.CartLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]types.CartLine, len(lines))
	for i, l := range lines {
		l.CartID = cartID
		l.Position = i
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		rows[i] = l
	}
	return t.WithContext(dbc.Ctx).Create(&rows).Error
}

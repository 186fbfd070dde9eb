package marketplace

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type ProductFilter struct {
	SellerID      uuid.UUID
	AvailableOnly bool
	Limit         int
	Offset        int
}

type ProductRepo interface {
	Create(dbc dbctx.Context, rows []*types.Product) ([]*types.Product, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)

	// LockByIDs locks rows in id order. Soft-deleted products are included so
	// orders that reference them can still be cancelled or refunded.
	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)

	List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, error)
	ListIDsBySeller(dbc dbctx.Context, sellerID uuid.UUID) ([]uuid.UUID, error)

	// Delete soft-deletes; the row stays for order history.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, rows []*types.Product) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Product{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *productRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	ids = sortedUniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.LockByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *productRepo) List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	q := t.WithContext(dbc.Ctx).Model(&types.Product{})
	if f.SellerID != uuid.Nil {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.AvailableOnly {
		q = q.Where("listing_status = ? AND stock > 0", types.ListingListed)
	}
	q = q.Order("created_at ASC, id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) ListIDsBySeller(dbc dbctx.Context, sellerID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if sellerID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Model(&types.Product{}).
		Where("seller_id = ?", sellerID).
		Order("created_at ASC, id ASC").
		Pluck("id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Product{}).Error
}

package marketplace

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type SellerRepo interface {
	Create(dbc dbctx.Context, rows []*types.Seller) ([]*types.Seller, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Seller, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Seller, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.Seller, error)

	// LockByIDs locks rows in id order so concurrent payers never deadlock.
	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Seller, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Seller, error)

	List(dbc dbctx.Context, limit, offset int) ([]*types.Seller, error)
}

type sellerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSellerRepo(db *gorm.DB, baseLog *logger.Logger) SellerRepo {
	return &sellerRepo{db: db, log: baseLog.With("repo", "SellerRepo")}
}

func (r *sellerRepo) Create(dbc dbctx.Context, rows []*types.Seller) ([]*types.Seller, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Seller{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sellerRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Seller, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Seller
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sellerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Seller, error) {
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

func (r *sellerRepo) GetByUsername(dbc dbctx.Context, username string) (*types.Seller, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Seller
	if err := t.WithContext(dbc.Ctx).Where("username = ?", username).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sellerRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Seller, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Seller
	ids = sortedUniqueIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sellerRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Seller, error) {
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

func (r *sellerRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Seller, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Seller
	q := t.WithContext(dbc.Ctx).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func sortedUniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

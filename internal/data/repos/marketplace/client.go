package marketplace

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type ClientRepo interface {
	Create(dbc dbctx.Context, rows []*types.Client) ([]*types.Client, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Client, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.Client, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error)

	List(dbc dbctx.Context, limit, offset int) ([]*types.Client, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) Create(dbc dbctx.Context, rows []*types.Client) ([]*types.Client, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Client{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clientRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Client, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Client
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error) {
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

func (r *clientRepo) GetByUsername(dbc dbctx.Context, username string) (*types.Client, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Client
	if err := t.WithContext(dbc.Ctx).Where("username = ?", username).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *clientRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Client, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Client
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *clientRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Client, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Client
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

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

type OrderEventRepo interface {
	Append(dbc dbctx.Context, rows []*types.OrderEvent) error

	// LockPending claims up to limit unpublished rows, oldest first. Rows held
	// by another relay are skipped.
	LockPending(dbc dbctx.Context, limit int, maxAttempts int) ([]*types.OrderEvent, error)
	ListByOrderID(dbc dbctx.Context, orderID uuid.UUID) ([]*types.OrderEvent, error)
	CountPending(dbc dbctx.Context) (int64, error)

	MarkPublished(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, cause string, maxAttempts int) error
}

type orderEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderEventRepo(db *gorm.DB, baseLog *logger.Logger) OrderEventRepo {
	return &orderEventRepo{db: db, log: baseLog.With("repo", "OrderEventRepo")}
}

func (r *orderEventRepo) Append(dbc dbctx.Context, rows []*types.OrderEvent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *orderEventRepo) LockPending(dbc dbctx.Context, limit int, maxAttempts int) ([]*types.OrderEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.OrderEvent
	q := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", types.EventStatusPending)
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	if err := q.Order("created_at ASC, id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderEventRepo) ListByOrderID(dbc dbctx.Context, orderID uuid.UUID) ([]*types.OrderEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.OrderEvent
	if orderID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderEventRepo) CountPending(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.OrderEvent{}).
		Where("status = ?", types.EventStatusPending).
		Count(&n).Error
	return n, err
}

func (r *orderEventRepo) MarkPublished(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	at = at.UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.OrderEvent{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":       types.EventStatusPublished,
			"published_at": at,
			"last_error":   "",
			"updated_at":   at,
		}).Error
}

// MarkFailed records a failed attempt. The row stays pending until it has
// used maxAttempts, then it is parked as failed.
func (r *orderEventRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, cause string, maxAttempts int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	var row types.OrderEvent
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return err
	}
	if row.ID == uuid.Nil {
		return nil
	}
	attempts := row.Attempts + 1
	status := types.EventStatusPending
	if maxAttempts > 0 && attempts >= maxAttempts {
		status = types.EventStatusFailed
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.OrderEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": cause,
			"updated_at": time.Now().UTC(),
		}).Error
}

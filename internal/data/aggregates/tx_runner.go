package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

// TxRunner is the commit-all-or-nothing boundary every marketplace command runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// InTx commits when fn returns nil and rolls back on any error or panic.
func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

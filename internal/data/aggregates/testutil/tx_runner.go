package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/marketplace-backend/internal/data/aggregates"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

// InjectedTxRunner is a TxRunner with failure injection for aggregate tests.
// With DB set, the body runs inside a real transaction that is rolled back on
// any injected failure, so tests can assert nothing was persisted.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	// FailFirst makes the first FailFirst attempts fail with FailFirstErr
	// before the body runs.
	FailFirst    int
	FailFirstErr error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	attempt := r.BeginCalls
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	if attempt <= r.FailFirst && r.FailFirstErr != nil {
		failBeforeBody = r.FailFirstErr
	}
	db := r.DB
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.count(&r.RollbackCalls)
		return failBeforeBody
	}
	if fn == nil {
		r.count(&r.CommitCalls)
		return nil
	}

	body := func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return failCommit
	}
	var err error
	if db != nil {
		err = db.WithContext(ctx).Transaction(body)
	} else {
		err = body(nil)
	}
	if err != nil {
		r.count(&r.RollbackCalls)
		return err
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}

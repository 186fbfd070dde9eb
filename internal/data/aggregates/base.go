package aggregates

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

const (
	defaultMaxAttempts = 3
	retryBackoff       = 25 * time.Millisecond
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard

	// MaxAttempts bounds reruns of a transaction that failed with a retryable
	// error (serialization failure, deadlock, lock timeout).
	MaxAttempts int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultMaxAttempts
	}
	return d
}

// MarketplaceDeps is what every marketplace aggregate is built from.
type MarketplaceDeps struct {
	Base  BaseDeps
	Repos repos.Set
}

func (d MarketplaceDeps) withDefaults() MarketplaceDeps {
	d.Base = d.Base.withDefaults()
	if d.Repos.Clients == nil {
		d.Repos = repos.NewSet(d.Base.DB, d.Base.Log)
	}
	return d
}

// executeWrite runs fn in one transaction and maps its failure to an
// aggregate error. fn must load everything it needs from dbc, because a
// retryable failure or a lost version race reruns it from scratch.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	for attempt := 1; ; attempt++ {
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		if mapped == nil {
			break
		}
		staleVersion := errors.Is(mapped, ErrConflict)
		if staleVersion {
			deps.Hooks.IncConflict(op)
		}
		if !staleVersion && !domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			break
		}
		deps.Hooks.IncRetry(op)
		if attempt >= deps.MaxAttempts || ctx.Err() != nil {
			break
		}
		deps.Log.Warn("aggregate write retry", "op", op, "attempt", attempt, "error", mapped.Error())
		select {
		case <-ctx.Done():
		case <-time.After(jitter(retryBackoff * time.Duration(attempt))):
		}
	}

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		// Lost version races were counted per attempt above.
		if domainagg.IsCode(mapped, domainagg.CodeConflict) && !errors.Is(mapped, ErrConflict) {
			deps.Hooks.IncConflict(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}

// jitter spreads base by +/-20%.
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := float64(base) * 0.2
	return time.Duration(float64(base) - delta + rand.Float64()*2*delta)
}

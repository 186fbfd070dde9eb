package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/observability"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

const (
	defaultBatchSize    = 100
	defaultMaxAttempts  = 10
	defaultPollInterval = time.Second
)

type RelayConfig struct {
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Relay drains the order_event outbox. Rows are claimed with SKIP LOCKED, so
// several relays can run against one database.
type Relay struct {
	db      *gorm.DB
	events  repos.OrderEventRepo
	pub     Publisher
	metrics *observability.Metrics
	log     *logger.Logger
	cfg     RelayConfig
}

func NewRelay(db *gorm.DB, events repos.OrderEventRepo, pub Publisher, metrics *observability.Metrics, log *logger.Logger, cfg RelayConfig) (*Relay, error) {
	if db == nil {
		return nil, fmt.Errorf("relay: db required")
	}
	if pub == nil {
		return nil, fmt.Errorf("relay: publisher required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if events == nil {
		events = repos.NewOrderEventRepo(db, log)
	}
	return &Relay{
		db:      db,
		events:  events,
		pub:     pub,
		metrics: metrics,
		log:     log.With("service", "OrderEventRelay"),
		cfg:     cfg.withDefaults(),
	}, nil
}

// Flush publishes one batch and returns how many rows were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	published := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		rows, err := r.events.LockPending(dbc, r.cfg.BatchSize, r.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		r.metrics.ObserveOutboxBatch(len(rows))
		if len(rows) == 0 {
			return nil
		}

		ok := make([]uuid.UUID, 0, len(rows))
		for _, ev := range rows {
			if err := r.pub.Publish(ctx, ev); err != nil {
				r.metrics.IncOutboxFailed(ev.Kind)
				r.log.Warn("order event publish failed", "event_id", ev.ID.String(), "kind", ev.Kind, "attempt", ev.Attempts+1, "error", err)
				if err := r.events.MarkFailed(dbc, ev.ID, err.Error(), r.cfg.MaxAttempts); err != nil {
					return err
				}
				if ev.Attempts+1 >= r.cfg.MaxAttempts {
					r.log.Error("order event parked", "event_id", ev.ID.String(), "kind", ev.Kind)
				}
				continue
			}
			r.metrics.IncOutboxPublished(ev.Kind)
			ok = append(ok, ev.ID)
		}
		if err := r.events.MarkPublished(dbc, ok, types.Clock()); err != nil {
			return err
		}
		published = len(ok)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if r.metrics != nil {
		if n, err := r.events.CountPending(dbctx.Context{Ctx: ctx}); err == nil {
			r.metrics.SetOutboxPending(n)
		}
	}
	return published, nil
}

// Run flushes until ctx is cancelled. A full batch is followed immediately by
// another pass.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("order event relay started", "batch_size", r.cfg.BatchSize, "poll_interval", r.cfg.PollInterval.String())
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		n, err := r.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Warn("order event relay pass failed", "error", err)
		}
		if err == nil && n >= r.cfg.BatchSize {
			continue
		}
		select {
		case <-ctx.Done():
			r.log.Info("order event relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

const DefaultChannel = "marketplace.orders"

// Publisher delivers one outbox row to subscribers. A returned error leaves
// the row pending for the next relay pass.
type Publisher interface {
	Publish(ctx context.Context, ev *types.OrderEvent) error
	Close() error
}

type RedisConfig struct {
	Addr    string
	Channel string
}

type RedisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisPublisher(log *logger.Logger, cfg RedisConfig) (*RedisPublisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{
		log:     log.With("service", "OrderEventPublisher"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

// Client exposes the connection for health collectors.
func (p *RedisPublisher) Client() goredis.UniversalClient { return p.rdb }

// Publish sends the stored payload unchanged on the shared channel and on a
// per-kind channel ("marketplace.orders.order.paid").
func (p *RedisPublisher) Publish(ctx context.Context, ev *types.OrderEvent) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	if ev == nil {
		return nil
	}
	raw := []byte(ev.Payload)
	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, p.channel, raw)
	pipe.Publish(ctx, p.channel+"."+ev.Kind, raw)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.With("service", "OrderEventLogPublisher")}
}

func (p *LogPublisher) Publish(_ context.Context, ev *types.OrderEvent) error {
	if ev == nil {
		return nil
	}
	p.log.Info("order event", "event_id", ev.ID.String(), "order_id", ev.OrderID.String(), "kind", ev.Kind)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/marketplace-backend/internal/data/db"
	"github.com/yungbote/marketplace-backend/internal/events"
	apphttp "github.com/yungbote/marketplace-backend/internal/http"
	"github.com/yungbote/marketplace-backend/internal/observability"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Metrics *observability.Metrics

	Repos      Repos
	Aggregates Aggregates
	Server     *apphttp.Server
	Relay      *events.Relay

	dbService *db.Service
	publisher events.Publisher
}

func New() (*App, error) {
	boot, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := LoadConfig(boot)
	if err != nil {
		boot.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := boot
	if cfg.LogMode != "development" {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	return NewWithConfig(cfg, log)
}

// NewWithConfig wires the service from an explicit config.
func NewWithConfig(cfg Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	dbService, err := db.Open(cfg.DB.dbConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureMarketplaceIndexes(theDB); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	metrics := observability.Init(log, cfg.Metrics.Enabled)
	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, cfg, reposet, metrics)
	handlers := wireHandlers(log, theDB, reposet, aggs)
	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSAllowOrigins,
		AccountHandler: handlers.Account,
		ProductHandler: handlers.Product,
		CartHandler:    handlers.Cart,
		OrderHandler:   handlers.Order,
		HealthHandler:  handlers.Health,
	})

	a := &App{
		Log:        log,
		DB:         theDB,
		Cfg:        cfg,
		Metrics:    metrics,
		Repos:      reposet,
		Aggregates: aggs,
		Server:     server,
		dbService:  dbService,
	}

	if cfg.Outbox.Enabled {
		pub, err := wirePublisher(log, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = pub
		relay, err := events.NewRelay(theDB, reposet.Set.OrderEvents, pub, metrics, log, events.RelayConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
			PollInterval: cfg.Outbox.PollInterval,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Relay = relay
	}
	return a, nil
}

// StartCollectors runs the metrics endpoint and its background collectors
// until ctx is done. It does nothing when metrics are off.
func (a *App) StartCollectors(ctx context.Context) {
	if a == nil || a.Metrics == nil {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if rp, ok := a.publisher.(*events.RedisPublisher); ok {
		a.Metrics.StartRedisCollector(ctx, a.Log, rp.Client())
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Log.Warn("publisher close failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	a.Log.Sync()
}

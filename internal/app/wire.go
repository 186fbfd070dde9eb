package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/marketplace-backend/internal/data/aggregates"
	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	"github.com/yungbote/marketplace-backend/internal/events"
	httpH "github.com/yungbote/marketplace-backend/internal/http/handlers"
	"github.com/yungbote/marketplace-backend/internal/observability"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type Repos struct {
	Set repos.Set
}

type Aggregates struct {
	Accounts domainagg.AccountAggregate
	Catalog  domainagg.CatalogAggregate
	Carts    domainagg.CartAggregate
	Orders   domainagg.OrderAggregate
	Returns  domainagg.ReturnAggregate
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Account *httpH.AccountHandler
	Product *httpH.ProductHandler
	Cart    *httpH.CartHandler
	Order   *httpH.OrderHandler
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{Set: repos.NewSet(db, log)}
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	deps := aggregates.MarketplaceDeps{
		Base: aggregates.BaseDeps{
			DB:          db,
			Log:         log,
			Hooks:       aggregates.NewObservabilityHooks(metrics),
			MaxAttempts: cfg.Aggregate.MaxAttempts,
		},
		Repos: r.Set,
	}
	return Aggregates{
		Accounts: aggregates.NewAccountAggregate(deps),
		Catalog:  aggregates.NewCatalogAggregate(deps),
		Carts:    aggregates.NewCartAggregate(deps),
		Orders:   aggregates.NewOrderAggregate(deps),
		Returns:  aggregates.NewReturnAggregate(deps),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, r Repos, a Aggregates) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Account: httpH.NewAccountHandler(a.Accounts, r.Set),
		Product: httpH.NewProductHandler(a.Catalog, r.Set.Products),
		Cart:    httpH.NewCartHandler(a.Carts, r.Set),
		Order:   httpH.NewOrderHandler(a.Orders, a.Returns, r.Set.Orders),
	}
}

// wirePublisher uses Redis when REDIS_ADDR is set and falls back to logging
// events otherwise.
func wirePublisher(log *logger.Logger, cfg Config) (events.Publisher, error) {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR not set; order events will only be logged")
		return events.NewLogPublisher(log), nil
	}
	return events.NewRedisPublisher(log, events.RedisConfig{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
}

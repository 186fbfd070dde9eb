package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/marketplace-backend/internal/data/repos/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type ClientRepo = marketplace.ClientRepo
type SellerRepo = marketplace.SellerRepo
type ProductRepo = marketplace.ProductRepo
type ProductFilter = marketplace.ProductFilter
type CartRepo = marketplace.CartRepo
type OrderRepo = marketplace.OrderRepo
type OrderEventRepo = marketplace.OrderEventRepo

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return marketplace.NewClientRepo(db, baseLog)
}
func NewSellerRepo(db *gorm.DB, baseLog *logger.Logger) SellerRepo {
	return marketplace.NewSellerRepo(db, baseLog)
}
func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return marketplace.NewProductRepo(db, baseLog)
}
func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return marketplace.NewCartRepo(db, baseLog)
}
func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return marketplace.NewOrderRepo(db, baseLog)
}
func NewOrderEventRepo(db *gorm.DB, baseLog *logger.Logger) OrderEventRepo {
	return marketplace.NewOrderEventRepo(db, baseLog)
}

// Set bundles every table repo the service uses.
type Set struct {
	Clients     ClientRepo
	Sellers     SellerRepo
	Products    ProductRepo
	Carts       CartRepo
	Orders      OrderRepo
	OrderEvents OrderEventRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Clients:     NewClientRepo(db, baseLog),
		Sellers:     NewSellerRepo(db, baseLog),
		Products:    NewProductRepo(db, baseLog),
		Carts:       NewCartRepo(db, baseLog),
		Orders:      NewOrderRepo(db, baseLog),
		OrderEvents: NewOrderEventRepo(db, baseLog),
	}
}

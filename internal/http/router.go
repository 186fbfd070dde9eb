package http

import (
	"fmt"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/marketplace-backend/internal/http/handlers"
	httpMW "github.com/yungbote/marketplace-backend/internal/http/middleware"
	"github.com/yungbote/marketplace-backend/internal/http/response"
	"github.com/yungbote/marketplace-backend/internal/observability"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AccountHandler *httpH.AccountHandler
	ProductHandler *httpH.ProductHandler
	CartHandler    *httpH.CartHandler
	OrderHandler   *httpH.OrderHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.NoRoute(func(c *gin.Context) {
		response.RespondError(c, nethttp.StatusNotFound, "not_found", fmt.Errorf("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api/v1")

	// Clients + sellers
	if h := cfg.AccountHandler; h != nil {
		api.POST("/clients", h.RegisterClient)
		api.GET("/clients/:id", h.GetClient)
		api.GET("/clients/by-username/:username", h.GetClientByUsername)
		api.PUT("/clients/:id/username", h.ChangeClientUsername)
		api.GET("/clients/:id/balance", h.GetClientBalance)
		api.POST("/clients/:id/balance/top-up", h.TopUp)

		api.POST("/sellers", h.RegisterSeller)
		api.GET("/sellers/:id", h.GetSeller)
		api.GET("/sellers/by-username/:username", h.GetSellerByUsername)
		api.PUT("/sellers/:id/username", h.ChangeSellerUsername)
		api.GET("/sellers/:id/balance", h.GetSellerBalance)
	}

	// Catalog
	if h := cfg.ProductHandler; h != nil {
		api.POST("/products", h.Create)
		api.GET("/products", h.List)
		api.GET("/products/:id", h.Get)
		api.GET("/products/seller/:sellerId", h.ListBySeller)
		api.PUT("/products/:id/price", h.ChangePrice)
		api.POST("/products/:id/stock/increase", h.IncreaseStock)
		api.POST("/products/:id/stock/decrease", h.DecreaseStock)
		api.POST("/products/:id/list", h.ListForSale)
		api.POST("/products/:id/unlist", h.Unlist)
		api.DELETE("/products/:id", h.Delete)
	}

	// Carts
	if h := cfg.CartHandler; h != nil {
		api.GET("/carts/client/:clientId", h.Get)
		api.POST("/carts/client/:clientId/products", h.Add)
		api.DELETE("/carts/client/:clientId/products/:productId", h.Remove)
		api.PUT("/carts/client/:clientId/products/:productId/quantity", h.ChangeQuantity)
		api.DELETE("/carts/client/:clientId", h.Clear)
		api.POST("/carts/client/:clientId/select", h.Select)
		api.POST("/carts/client/:clientId/unselect", h.Unselect)
	}

	// Orders + returns
	if h := cfg.OrderHandler; h != nil {
		api.GET("/orders/:id", h.Get)
		api.GET("/orders/client/:clientId", h.ListByClient)
		api.GET("/orders/seller/:sellerId", h.ListBySeller)
		api.POST("/orders/from-cart", h.PlaceFromCart)
		api.POST("/orders/direct", h.PlaceDirect)
		api.POST("/orders/:id/pay", h.Pay)
		api.POST("/orders/:id/cancel", h.Cancel)
		api.POST("/orders/:id/mark-shipped", h.MarkShipped)
		api.POST("/orders/:id/mark-delivered", h.MarkDelivered)
		api.POST("/orders/:id/mark-completed", h.MarkCompleted)
		api.POST("/orders/:id/request-return", h.RequestReturn)
		api.POST("/orders/:id/approve-return", h.ApproveReturn)
		api.POST("/orders/:id/reject-return", h.RejectReturn)
	}

	return r
}

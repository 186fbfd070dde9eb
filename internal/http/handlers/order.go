package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/http/response"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type OrderHandler struct {
	orders  domainagg.OrderAggregate
	returns domainagg.ReturnAggregate
	rows    repos.OrderRepo
}

func NewOrderHandler(orders domainagg.OrderAggregate, returns domainagg.ReturnAggregate, rows repos.OrderRepo) *OrderHandler {
	return &OrderHandler{orders: orders, returns: returns, rows: rows}
}

type placeFromCartRequest struct {
	ClientID uuid.UUID `json:"client_id" binding:"required"`
}

type placeDirectRequest struct {
	ClientID  uuid.UUID `json:"client_id" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

// requestReturnRequest names the line either by order_line_id or by
// product_id with an optional seller_id.
type requestReturnRequest struct {
	OrderLineID uuid.UUID `json:"order_line_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	ProductID   uuid.UUID `json:"product_id"`
	Quantity    int       `json:"quantity"`
}

// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.rows.GetByID(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if o == nil {
		notFound(c, "order", id)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /api/v1/orders/client/:clientId
func (h *OrderHandler) ListByClient(c *gin.Context) {
	h.list(c, "clientId", h.rows.ListByClientID)
}

// GET /api/v1/orders/seller/:sellerId
func (h *OrderHandler) ListBySeller(c *gin.Context) {
	h.list(c, "sellerId", h.rows.ListBySellerID)
}

func (h *OrderHandler) list(c *gin.Context, param string, fn func(dbctx.Context, uuid.UUID) ([]*types.Order, error)) {
	id, ok := pathID(c, param)
	if !ok {
		return
	}
	rows, err := fn(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if rows == nil {
		rows = []*types.Order{}
	}
	response.RespondOK(c, gin.H{"orders": rows})
}

// POST /api/v1/orders/from-cart
func (h *OrderHandler) PlaceFromCart(c *gin.Context) {
	var req placeFromCartRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.orders.PlaceFromCart(c.Request.Context(), domainagg.PlaceFromCartInput{ClientID: req.ClientID})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"order": toOrderView(res)})
}

// POST /api/v1/orders/direct
func (h *OrderHandler) PlaceDirect(c *gin.Context) {
	var req placeDirectRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.orders.PlaceDirect(c.Request.Context(), domainagg.PlaceDirectInput{
		ClientID:  req.ClientID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"order": toOrderView(res)})
}

// POST /api/v1/orders/:id/pay?client_id=
func (h *OrderHandler) Pay(c *gin.Context) { h.clientCommand(c, h.orders.Pay) }

// POST /api/v1/orders/:id/cancel?client_id=
func (h *OrderHandler) Cancel(c *gin.Context) { h.clientCommand(c, h.orders.Cancel) }

func (h *OrderHandler) clientCommand(c *gin.Context, fn func(context.Context, domainagg.OrderCommandInput) (domainagg.OrderResult, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	clientID, ok := queryID(c, "client_id", true)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), domainagg.OrderCommandInput{ClientID: clientID, OrderID: id})
	h.respondOrder(c, res, err)
}

// POST /api/v1/orders/:id/mark-shipped
func (h *OrderHandler) MarkShipped(c *gin.Context) { h.advance(c, string(types.OrderShipped)) }

// POST /api/v1/orders/:id/mark-delivered
func (h *OrderHandler) MarkDelivered(c *gin.Context) { h.advance(c, string(types.OrderDelivered)) }

// POST /api/v1/orders/:id/mark-completed
func (h *OrderHandler) MarkCompleted(c *gin.Context) { h.advance(c, string(types.OrderCompleted)) }

func (h *OrderHandler) advance(c *gin.Context, to string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.orders.Advance(c.Request.Context(), domainagg.AdvanceOrderInput{OrderID: id, ToStatus: to})
	h.respondOrder(c, res, err)
}

// POST /api/v1/orders/:id/request-return?client_id=
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	clientID, ok := queryID(c, "client_id", true)
	if !ok {
		return
	}
	var req requestReturnRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.returns.RequestReturn(c.Request.Context(), domainagg.RequestReturnInput{
		ClientID:  clientID,
		OrderID:   id,
		SellerID:  req.SellerID,
		ProductID: req.ProductID,
		LineID:    req.OrderLineID,
		Quantity:  req.Quantity,
	})
	h.respondReturn(c, res, err)
}

// POST /api/v1/orders/:id/approve-return?seller_id=
func (h *OrderHandler) ApproveReturn(c *gin.Context) { h.sellerCommand(c, h.returns.ApproveReturn) }

// POST /api/v1/orders/:id/reject-return?seller_id=
func (h *OrderHandler) RejectReturn(c *gin.Context) { h.sellerCommand(c, h.returns.RejectReturn) }

func (h *OrderHandler) sellerCommand(c *gin.Context, fn func(context.Context, domainagg.SellerReturnInput) (domainagg.ReturnResult, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sellerID, ok := queryID(c, "seller_id", true)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), domainagg.SellerReturnInput{SellerID: sellerID, OrderID: id})
	h.respondReturn(c, res, err)
}

func (h *OrderHandler) respondOrder(c *gin.Context, res domainagg.OrderResult, err error) {
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": toOrderView(res)})
}

func (h *OrderHandler) respondReturn(c *gin.Context, res domainagg.ReturnResult, err error) {
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"return": toReturnView(res)})
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/http/response"
)

type CartHandler struct {
	carts    domainagg.CartAggregate
	cartRows repos.CartRepo
	products repos.ProductRepo
}

func NewCartHandler(carts domainagg.CartAggregate, set repos.Set) *CartHandler {
	return &CartHandler{carts: carts, cartRows: set.Carts, products: set.Products}
}

type cartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

// selectRequest leaves ProductID empty to select or unselect every line.
type selectRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// GET /api/v1/carts/client/:clientId
func (h *CartHandler) Get(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	dbc := readCtx(c)
	cart, err := h.cartRows.GetByClientID(dbc, clientID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if cart == nil {
		cart = &types.Cart{ClientID: clientID, Lines: []types.CartLine{}}
	}
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	rows, err := h.products.GetByIDs(dbc, ids)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	out := gin.H{"cart": cart}
	if total, err := cart.TotalPrice(types.NewProductSet(rows...)); err == nil {
		out["total"] = total
	}
	response.RespondOK(c, out)
}

// POST /api/v1/carts/client/:clientId/products
func (h *CartHandler) Add(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	var req cartLineRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.carts.AddToCart(c.Request.Context(), domainagg.CartLineInput{
		ClientID:  clientID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	h.respondCart(c, res, err)
}

// DELETE /api/v1/carts/client/:clientId/products/:productId
func (h *CartHandler) Remove(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	res, err := h.carts.RemoveFromCart(c.Request.Context(), domainagg.CartLineInput{ClientID: clientID, ProductID: productID})
	h.respondCart(c, res, err)
}

// PUT /api/v1/carts/client/:clientId/products/:productId/quantity
//
// A quantity of zero or less removes the line.
func (h *CartHandler) ChangeQuantity(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.carts.ChangeQuantity(c.Request.Context(), domainagg.CartLineInput{
		ClientID:  clientID,
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	h.respondCart(c, res, err)
}

// DELETE /api/v1/carts/client/:clientId
func (h *CartHandler) Clear(c *gin.Context) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	res, err := h.carts.ClearCart(c.Request.Context(), clientID)
	h.respondCart(c, res, err)
}

// POST /api/v1/carts/client/:clientId/select
func (h *CartHandler) Select(c *gin.Context) { h.setSelection(c, true) }

// POST /api/v1/carts/client/:clientId/unselect
func (h *CartHandler) Unselect(c *gin.Context) { h.setSelection(c, false) }

func (h *CartHandler) setSelection(c *gin.Context, selected bool) {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	var req selectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.carts.SetSelection(c.Request.Context(), domainagg.CartSelectionInput{
		ClientID:  clientID,
		ProductID: req.ProductID,
		Selected:  selected,
	})
	h.respondCart(c, res, err)
}

func (h *CartHandler) respondCart(c *gin.Context, res domainagg.CartResult, err error) {
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": toCartView(res)})
}

package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	"github.com/yungbote/marketplace-backend/internal/http/response"
)

// AccountHandler serves both client and seller accounts. Reads go to the
// table repos; writes go through the account aggregate.
type AccountHandler struct {
	accounts domainagg.AccountAggregate
	clients  repos.ClientRepo
	sellers  repos.SellerRepo
	orders   repos.OrderRepo
	products repos.ProductRepo
}

func NewAccountHandler(accounts domainagg.AccountAggregate, set repos.Set) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		clients:  set.Clients,
		sellers:  set.Sellers,
		orders:   set.Orders,
		products: set.Products,
	}
}

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type registerFunc func(context.Context, domainagg.RegisterAccountInput) (domainagg.AccountResult, error)

// POST /api/v1/clients
func (h *AccountHandler) RegisterClient(c *gin.Context) {
	h.register(c, "client", h.accounts.RegisterClient)
}

// POST /api/v1/sellers
func (h *AccountHandler) RegisterSeller(c *gin.Context) {
	h.register(c, "seller", h.accounts.RegisterSeller)
}

func (h *AccountHandler) register(c *gin.Context, key string, fn registerFunc) {
	var req usernameRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := fn(c.Request.Context(), domainagg.RegisterAccountInput{Username: req.Username})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{key: toAccountView(res)})
}

// GET /api/v1/clients/:id
func (h *AccountHandler) GetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dbc := readCtx(c)
	row, err := h.clients.GetByID(dbc, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "client", id)
		return
	}
	history, err := h.orders.ListIDsByClientID(dbc, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	row.PurchaseHistory = history
	response.RespondOK(c, gin.H{"client": row})
}

// GET /api/v1/clients/by-username/:username
func (h *AccountHandler) GetClientByUsername(c *gin.Context) {
	username := c.Param("username")
	row, err := h.clients.GetByUsername(readCtx(c), username)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "client", username)
		return
	}
	response.RespondOK(c, gin.H{"client": row})
}

// GET /api/v1/clients/:id/balance
func (h *AccountHandler) GetClientBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.clients.GetByID(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "client", id)
		return
	}
	response.RespondOK(c, gin.H{"balance": row.Balance})
}

// PUT /api/v1/clients/:id/username
func (h *AccountHandler) ChangeClientUsername(c *gin.Context) {
	h.changeUsername(c, domainagg.AccountClient)
}

// PUT /api/v1/sellers/:id/username
func (h *AccountHandler) ChangeSellerUsername(c *gin.Context) {
	h.changeUsername(c, domainagg.AccountSeller)
}

func (h *AccountHandler) changeUsername(c *gin.Context, kind domainagg.AccountKind) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req usernameRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.ChangeUsername(c.Request.Context(), domainagg.ChangeUsernameInput{
		Kind:     kind,
		ID:       id,
		Username: req.Username,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": res.ID, "username": res.Username, "changed": res.Changed})
}

// POST /api/v1/clients/:id/balance/top-up
func (h *AccountHandler) TopUp(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req topUpRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.TopUp(c.Request.Context(), domainagg.TopUpInput{ClientID: id, Amount: req.Amount})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"client": toAccountView(res)})
}

// GET /api/v1/sellers/:id
func (h *AccountHandler) GetSeller(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dbc := readCtx(c)
	row, err := h.sellers.GetByID(dbc, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "seller", id)
		return
	}
	ids, err := h.products.ListIDsBySeller(dbc, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	row.Products = ids
	response.RespondOK(c, gin.H{"seller": row})
}

// GET /api/v1/sellers/by-username/:username
func (h *AccountHandler) GetSellerByUsername(c *gin.Context) {
	username := c.Param("username")
	row, err := h.sellers.GetByUsername(readCtx(c), username)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "seller", username)
		return
	}
	response.RespondOK(c, gin.H{"seller": row})
}

// GET /api/v1/sellers/:id/balance
func (h *AccountHandler) GetSellerBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.sellers.GetByID(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "seller", id)
		return
	}
	response.RespondOK(c, gin.H{"balance": row.Balance})
}

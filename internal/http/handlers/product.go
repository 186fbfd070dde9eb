package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	repos "github.com/yungbote/marketplace-backend/internal/data/repos"
	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	"github.com/yungbote/marketplace-backend/internal/http/response"
)

type ProductHandler struct {
	catalog  domainagg.CatalogAggregate
	products repos.ProductRepo
}

func NewProductHandler(catalog domainagg.CatalogAggregate, products repos.ProductRepo) *ProductHandler {
	return &ProductHandler{catalog: catalog, products: products}
}

type createProductRequest struct {
	SellerID    uuid.UUID       `json:"seller_id" binding:"required"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.catalog.CreateProduct(c.Request.Context(), domainagg.CreateProductInput{
		SellerID:    req.SellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": toProductView(res)})
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.products.GetByID(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if row == nil {
		notFound(c, "product", id)
		return
	}
	response.RespondOK(c, gin.H{"product": row})
}

// GET /api/v1/products?seller_id=&available=true&limit=&offset=
func (h *ProductHandler) List(c *gin.Context) {
	sellerID, ok := queryID(c, "seller_id", false)
	if !ok {
		return
	}
	h.list(c, sellerID)
}

// GET /api/v1/products/seller/:sellerId
func (h *ProductHandler) ListBySeller(c *gin.Context) {
	sellerID, ok := pathID(c, "sellerId")
	if !ok {
		return
	}
	h.list(c, sellerID)
}

func (h *ProductHandler) list(c *gin.Context, sellerID uuid.UUID) {
	limit, offset := page(c)
	rows, err := h.products.List(readCtx(c), repos.ProductFilter{
		SellerID:      sellerID,
		AvailableOnly: c.Query("available") == "true",
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": rows})
}

// PUT /api/v1/products/:id/price
func (h *ProductHandler) ChangePrice(c *gin.Context) {
	ref, ok := h.ref(c)
	if !ok {
		return
	}
	var req priceRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.catalog.ChangePrice(c.Request.Context(), domainagg.ChangePriceInput{
		SellerID:  ref.SellerID,
		ProductID: ref.ProductID,
		Price:     req.Price,
	})
	h.respondProduct(c, res, err)
}

// POST /api/v1/products/:id/stock/increase
func (h *ProductHandler) IncreaseStock(c *gin.Context) {
	h.adjustStock(c, h.catalog.IncreaseStock)
}

// POST /api/v1/products/:id/stock/decrease
func (h *ProductHandler) DecreaseStock(c *gin.Context) {
	h.adjustStock(c, h.catalog.DecreaseStock)
}

func (h *ProductHandler) adjustStock(c *gin.Context, fn func(ctx context.Context, in domainagg.AdjustStockInput) (domainagg.ProductResult, error)) {
	ref, ok := h.ref(c)
	if !ok {
		return
	}
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := fn(c.Request.Context(), domainagg.AdjustStockInput{
		SellerID:  ref.SellerID,
		ProductID: ref.ProductID,
		Quantity:  req.Quantity,
	})
	h.respondProduct(c, res, err)
}

// POST /api/v1/products/:id/list
func (h *ProductHandler) ListForSale(c *gin.Context) { h.setListing(c, true) }

// POST /api/v1/products/:id/unlist
func (h *ProductHandler) Unlist(c *gin.Context) { h.setListing(c, false) }

func (h *ProductHandler) setListing(c *gin.Context, listed bool) {
	ref, ok := h.ref(c)
	if !ok {
		return
	}
	res, err := h.catalog.SetListing(c.Request.Context(), domainagg.SetListingInput{
		SellerID:  ref.SellerID,
		ProductID: ref.ProductID,
		Listed:    listed,
	})
	h.respondProduct(c, res, err)
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	ref, ok := h.ref(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), ref); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// ref resolves the acting seller: the seller_id query parameter when given,
// otherwise the product's owner.
func (h *ProductHandler) ref(c *gin.Context) (domainagg.ProductRefInput, bool) {
	var ref domainagg.ProductRefInput
	id, ok := pathID(c, "id")
	if !ok {
		return ref, false
	}
	sellerID, ok := queryID(c, "seller_id", false)
	if !ok {
		return ref, false
	}
	ref.ProductID = id
	ref.SellerID = sellerID
	if sellerID != uuid.Nil {
		return ref, true
	}
	row, err := h.products.GetByID(readCtx(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return ref, false
	}
	if row == nil {
		notFound(c, "product", id)
		return ref, false
	}
	ref.SellerID = row.SellerID
	return ref, true
}

func (h *ProductHandler) respondProduct(c *gin.Context, res domainagg.ProductResult, err error) {
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": toProductView(res)})
}

package handler

import (
	"net/http"

	inventoryapp "github.com/dinarbooks/backend/internal/application/inventory"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductHandler serves products and their stock movements
type ProductHandler struct {
	BaseHandler
	products *inventoryapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *inventoryapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU          string          `json:"sku" binding:"required,min=1,max=64" example:"TEA-500"`
	Name         string          `json:"name" binding:"required,min=1,max=200" example:"Ceylon tea 500g"`
	Description  string          `json:"description" binding:"max=2000"`
	PriceIQD     decimal.Decimal `json:"price_iqd" binding:"decimal_gte0" example:"6500"`
	PriceUSD     decimal.Decimal `json:"price_usd" binding:"decimal_gte0" example:"5.00"`
	InitialStock int64           `json:"initial_stock" binding:"min=0" example:"50"`
}

// UpdateProductRequest represents a request to update a product. Stock is changed
// only through movements.
type UpdateProductRequest struct {
	SKU         *string          `json:"sku" binding:"omitempty,min=1,max=64"`
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	PriceIQD    *decimal.Decimal `json:"price_iqd" binding:"omitempty,decimal_gte0"`
	PriceUSD    *decimal.Decimal `json:"price_usd" binding:"omitempty,decimal_gte0"`
}

// StockMovementRequest records a manual movement
type StockMovementRequest struct {
	Type     string `json:"type" binding:"required,oneof=in out"`
	Quantity int64  `json:"quantity" example:"7"`
	Notes    string `json:"notes" binding:"max=500"`
}

// AdjustStockRequest sets stock to an absolute count after a physical count
type AdjustStockRequest struct {
	Quantity *int64 `json:"quantity" binding:"required"`
	Notes    string `json:"notes" binding:"max=500"`
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Description  Returns a page of products
// @Tags         products
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Param        search query string false "SKU or name"
// @Success      200 {object} dto.Response{data=[]inventoryapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	products, total, err := h.products.List(c.Request.Context(), inventoryapp.ProductListFilter{
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, q.Page, q.PageSize)
}

// LowStock godoc
// @ID           listLowStockProducts
// @Summary      List low-stock products
// @Description  Products at or below the threshold
// @Tags         products
// @Produce      json
// @Param        threshold query int false "Stock threshold"
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventoryapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/low-stock [get]
func (h *ProductHandler) LowStock(c *gin.Context) {
	threshold, ok := h.queryInt(c, "threshold", h.products.LowStockThreshold())
	if !ok {
		return
	}
	if threshold < 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "threshold must not be negative")
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	products, total, err := h.products.LowStock(c.Request.Context(), threshold, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, q.Page, q.PageSize)
}

// Create godoc
// @ID           createProduct
// @Summary      Create a product
// @Description  Registers a product; a positive initial stock is posted as an opening movement
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=inventoryapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.products.Create(c.Request.Context(), inventoryapp.CreateProductRequest{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		PriceIQD:     req.PriceIQD,
		PriceUSD:     req.PriceUSD,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID godoc
// @ID           getProduct
// @Summary      Get a product
// @Description  Returns one product
// @Tags         products
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update godoc
// @ID           updateProduct
// @Summary      Update a product
// @Description  Changes descriptive fields and prices
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body UpdateProductRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=inventoryapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, inventoryapp.UpdateProductRequest{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceIQD:    req.PriceIQD,
		PriceUSD:    req.PriceUSD,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Description  Removes a product no document references
// @Tags         products
// @Param        id path string true "ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Movements godoc
// @ID           listProductMovements
// @Summary      List stock movements
// @Description  Returns the product's movement log in posting order
// @Tags         products
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventoryapp.MovementResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/movements [get]
func (h *ProductHandler) Movements(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	movements, total, err := h.products.Movements(c.Request.Context(), id, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, q.Page, q.PageSize)
}

// RecordMovement godoc
// @ID           recordProductMovement
// @Summary      Record a stock movement
// @Description  Posts a manual in or out movement
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body StockMovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=inventoryapp.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/movements [post]
func (h *ProductHandler) RecordMovement(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req StockMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.products.RecordMovement(c.Request.Context(), id, inventoryapp.MovementRequest{
		Type:     req.Type,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Adjust godoc
// @ID           adjustProductStock
// @Summary      Adjust stock to a counted quantity
// @Description  Sets the stock to an absolute count. An unchanged count answers 204
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body AdjustStockRequest true "Counted quantity"
// @Success      201 {object} dto.Response{data=inventoryapp.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/adjust [post]
func (h *ProductHandler) Adjust(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.products.Adjust(c.Request.Context(), id, inventoryapp.AdjustRequest{
		Quantity: *req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if movement == nil {
		h.NoContent(c)
		return
	}
	h.Created(c, movement)
}

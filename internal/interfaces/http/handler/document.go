package handler

import (
	"context"
	"net/http"

	tradeapp "github.com/dinarbooks/backend/internal/application/trade"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/dinarbooks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentHandler serves sales or purchases. The two share one shape; only the
// party field name differs (customer_id, supplier_id).
type DocumentHandler struct {
	BaseHandler
	kind       trade.DocumentKind
	partyField string
	documents  *tradeapp.DocumentService
}

// NewSalesHandler creates the handler mounted at /api/sales
func NewSalesHandler(documents *tradeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{kind: trade.KindSale, partyField: "customer_id", documents: documents}
}

// NewPurchasesHandler creates the handler mounted at /api/purchases
func NewPurchasesHandler(documents *tradeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{kind: trade.KindPurchase, partyField: "supplier_id", documents: documents}
}

// LineItemRequest is one document line. Missing prices default to the product's list price.
type LineItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" example:"3"`
	PriceIQD  *decimal.Decimal `json:"price_iqd" binding:"omitempty,decimal_gte0" example:"6500"`
	PriceUSD  *decimal.Decimal `json:"price_usd" binding:"omitempty,decimal_gte0" example:"5.00"`
}

// DocumentRequest creates or replaces a sale or purchase. The party arrives as
// customer_id or supplier_id and is copied into PartyID after decoding.
type DocumentRequest struct {
	CustomerID *uuid.UUID        `json:"customer_id"`
	SupplierID *uuid.UUID        `json:"supplier_id"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes      string            `json:"notes" binding:"max=2000"`
	Status     string            `json:"status" binding:"omitempty,oneof=pending completed"`
	Date       string            `json:"date" binding:"omitempty,iso_date"`
}

// ReturnItemRequest is one product to return
type ReturnItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" example:"1"`
	Reason    string    `json:"reason" binding:"max=500" example:"damaged"`
}

// ReturnRequest returns goods against a completed document
type ReturnRequest struct {
	Items []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// DocumentListQuery filters a document list
type DocumentListQuery struct {
	dto.ListRequest
	dto.PeriodQuery
	CustomerID string `form:"customer_id"`
	SupplierID string `form:"supplier_id"`
	Status     string `form:"status" binding:"omitempty,oneof=pending completed cancelled returned"`
}

func (h *DocumentHandler) partyID(c *gin.Context, req *DocumentRequest) (uuid.UUID, bool) {
	id := req.CustomerID
	if h.kind == trade.KindPurchase {
		id = req.SupplierID
	}
	if id == nil || *id == uuid.Nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed",
			middleware.GetRequestID(c), []dto.ValidationDetail{{Field: h.partyField, Message: "This field is required"}}))
		return uuid.Nil, false
	}
	return *id, true
}

func toLineItemInputs(items []LineItemRequest) []tradeapp.LineItemInput {
	out := make([]tradeapp.LineItemInput, len(items))
	for i, it := range items {
		out[i] = tradeapp.LineItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			PriceIQD:  it.PriceIQD,
			PriceUSD:  it.PriceUSD,
		}
	}
	return out
}

// List godoc
// @Summary      List sales or purchases
// @Description  A page of documents, newest first
// @Tags         documents
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        customer_id query string false "Customer (sales)" format(uuid)
// @Param        supplier_id query string false "Supplier (purchases)" format(uuid)
// @Param        status query string false "Status" Enums(pending, completed, cancelled, returned)
// @Success      200 {object} dto.Response{data=[]tradeapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [get]
// @Router       /purchases [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var q DocumentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	rawParty := q.CustomerID
	if h.kind == trade.KindPurchase {
		rawParty = q.SupplierID
	}
	partyID, ok := h.parseOptionalUUID(c, h.partyField, rawParty)
	if !ok {
		return
	}
	start, end, ok := h.parsePeriod(c, q.PeriodQuery)
	if !ok {
		return
	}

	docs, total, err := h.documents.List(c.Request.Context(), h.kind, tradeapp.DocumentListFilter{
		PartyID:   partyID,
		Status:    q.Status,
		StartDate: start,
		EndDate:   end,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, q.Page, q.PageSize)
}

// Create godoc
// @Summary      Create a sale or purchase
// @Description  Completed documents post stock and ledger effects in the same transaction
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body DocumentRequest true "Document"
// @Success      201 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [post]
// @Router       /purchases [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req DocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	partyID, ok := h.partyID(c, &req)
	if !ok {
		return
	}
	date, err := dto.ParseOptionalDate(req.Date)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), h.kind, tradeapp.CreateDocumentRequest{
		PartyID: partyID,
		Items:   toLineItemInputs(req.Items),
		Notes:   req.Notes,
		Status:  req.Status,
		Date:    date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// GetByID godoc
// @Summary      Get a sale or purchase
// @Description  Returns one document with its lines
// @Tags         documents
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [get]
// @Router       /purchases/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.GetByID(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Update godoc
// @Summary      Update a pending sale or purchase
// @Description  Replaces the party, lines and notes of a pending document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body DocumentRequest true "Document"
// @Success      200 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [put]
// @Router       /purchases/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req DocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	partyID, ok := h.partyID(c, &req)
	if !ok {
		return
	}
	date, err := dto.ParseOptionalDate(req.Date)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	doc, err := h.documents.Update(c.Request.Context(), h.kind, id, tradeapp.UpdateDocumentRequest{
		PartyID: partyID,
		Items:   toLineItemInputs(req.Items),
		Notes:   req.Notes,
		Date:    date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete godoc
// @Summary      Delete a sale or purchase
// @Description  Removes a pending or cancelled document
// @Tags         documents
// @Param        id path string true "ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [delete]
// @Router       /purchases/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), h.kind, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Complete godoc
// @Summary      Complete a pending document
// @Description  Moves a pending document to completed
// @Tags         documents
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/complete [post]
// @Router       /purchases/{id}/complete [post]
func (h *DocumentHandler) Complete(c *gin.Context) {
	h.transition(c, h.documents.Complete)
}

// Cancel godoc
// @Summary      Cancel a pending document
// @Description  Moves a pending document to cancelled
// @Tags         documents
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
// @Router       /purchases/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.documents.Cancel)
}

// Reopen godoc
// @Summary      Reopen a cancelled document
// @Description  Moves a cancelled document back to pending
// @Tags         documents
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/reopen [post]
// @Router       /purchases/{id}/reopen [post]
func (h *DocumentHandler) Reopen(c *gin.Context) {
	h.transition(c, h.documents.Reopen)
}

func (h *DocumentHandler) transition(c *gin.Context, apply func(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*tradeapp.DocumentResponse, error)) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	doc, err := apply(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Return godoc
// @Summary      Return goods
// @Description  Records returned goods against a completed document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body ReturnRequest true "Returned items"
// @Success      201 {object} dto.Response{data=tradeapp.ReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/return [post]
// @Router       /purchases/{id}/return [post]
func (h *DocumentHandler) Return(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	items := make([]tradeapp.ReturnItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = tradeapp.ReturnItemInput{ProductID: it.ProductID, Quantity: it.Quantity, Reason: it.Reason}
	}
	ret, err := h.documents.Return(c.Request.Context(), h.kind, id, tradeapp.ReturnRequest{Items: items})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// Returns godoc
// @Summary      List returns of a document
// @Description  Lists the returns posted against a document
// @Tags         documents
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.ReturnResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/returns [get]
// @Router       /purchases/{id}/returns [get]
func (h *DocumentHandler) Returns(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	returns, err := h.documents.ListReturns(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, returns)
}

package handler

import (
	partnerapp "github.com/dinarbooks/backend/internal/application/partner"
	tradeapp "github.com/dinarbooks/backend/internal/application/trade"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PartyHandler serves customers or suppliers. One instance is registered per kind.
type PartyHandler struct {
	BaseHandler
	kind      partner.PartyKind
	parties   *partnerapp.PartyService
	documents *tradeapp.DocumentService
}

// NewCustomerHandler creates the handler mounted at /api/customers
func NewCustomerHandler(parties *partnerapp.PartyService, documents *tradeapp.DocumentService) *PartyHandler {
	return &PartyHandler{kind: partner.PartyKindCustomer, parties: parties, documents: documents}
}

// NewSupplierHandler creates the handler mounted at /api/suppliers
func NewSupplierHandler(parties *partnerapp.PartyService, documents *tradeapp.DocumentService) *PartyHandler {
	return &PartyHandler{kind: partner.PartyKindSupplier, parties: parties, documents: documents}
}

// CreatePartyRequest represents a request to create a customer or supplier
type CreatePartyRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200" example:"Al-Rasheed Trading"`
	Phone       string           `json:"phone" binding:"max=50" example:"+964 770 123 4567"`
	Email       string           `json:"email" binding:"omitempty,email,max=200"`
	Address     string           `json:"address" binding:"max=500" example:"Karrada, Baghdad"`
	Notes       string           `json:"notes" binding:"max=2000"`
	CreditLimit *decimal.Decimal `json:"credit_limit" binding:"omitempty,decimal_gte0" example:"5000000"`
}

// UpdatePartyRequest represents a request to update a party. Absent fields are left unchanged.
type UpdatePartyRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Phone       *string          `json:"phone" binding:"omitempty,max=50"`
	Email       *string          `json:"email" binding:"omitempty,email,max=200"`
	Address     *string          `json:"address" binding:"omitempty,max=500"`
	Notes       *string          `json:"notes" binding:"omitempty,max=2000"`
	CreditLimit *decimal.Decimal `json:"credit_limit" binding:"omitempty,decimal_gte0"`
	Status      *string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

// PartyListQuery filters a party list
type PartyListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=active inactive"`
}

// TransactionsQuery filters a party's ledger history
type TransactionsQuery struct {
	dto.PeriodQuery
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// List godoc
// @Summary      List customers or suppliers
// @Description  Returns a page of parties
// @Tags         parties
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Param        search query string false "Name, phone or email"
// @Param        status query string false "Status" Enums(active, inactive)
// @Success      200 {object} dto.Response{data=[]partnerapp.PartyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers [get]
// @Router       /suppliers [get]
func (h *PartyHandler) List(c *gin.Context) {
	var q PartyListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	parties, total, err := h.parties.List(c.Request.Context(), h.kind, partnerapp.PartyListFilter{
		Search:   q.Search,
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, parties, total, q.Page, q.PageSize)
}

// Create godoc
// @Summary      Create a customer or supplier
// @Description  Registers a party with a zero balance
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        request body CreatePartyRequest true "Party"
// @Success      201 {object} dto.Response{data=partnerapp.PartyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers [post]
// @Router       /suppliers [post]
func (h *PartyHandler) Create(c *gin.Context) {
	var req CreatePartyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	party, err := h.parties.Create(c.Request.Context(), h.kind, partnerapp.CreatePartyRequest{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Notes:       req.Notes,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, party)
}

// GetByID godoc
// @Summary      Get a customer or supplier
// @Description  Returns one party with its balance
// @Tags         parties
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.PartyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [get]
// @Router       /suppliers/{id} [get]
func (h *PartyHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	party, err := h.parties.GetByID(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// Update godoc
// @Summary      Update a customer or supplier
// @Description  Changes contact details, credit limit or status. The balance is never written here
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body UpdatePartyRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=partnerapp.PartyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [put]
// @Router       /suppliers/{id} [put]
func (h *PartyHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdatePartyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	party, err := h.parties.Update(c.Request.Context(), h.kind, id, partnerapp.UpdatePartyRequest{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Notes:       req.Notes,
		CreditLimit: req.CreditLimit,
		Status:      req.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// Delete godoc
// @Summary      Delete a customer or supplier
// @Description  Removes a party without documents
// @Tags         parties
// @Param        id path string true "ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
// @Router       /suppliers/{id} [delete]
func (h *PartyHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.parties.Delete(c.Request.Context(), h.kind, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Transactions godoc
// @Summary      List ledger entries
// @Description  Returns the party's ledger entries, oldest first
// @Tags         parties
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        search query string false "Description or reference"
// @Param        limit query int false "Maximum entries" maximum(1000)
// @Success      200 {object} dto.Response{data=[]partnerapp.LedgerEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id}/transactions [get]
// @Router       /suppliers/{id}/transactions [get]
func (h *PartyHandler) Transactions(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q TransactionsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	start, end, ok := h.parsePeriod(c, q.PeriodQuery)
	if !ok {
		return
	}

	entries, err := h.parties.Transactions(c.Request.Context(), h.kind, id, partnerapp.TransactionQuery{
		StartDate: start,
		EndDate:   end,
		Search:    q.Search,
		Limit:     q.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// Statistics godoc
// @Summary      Get trading statistics
// @Description  Summarizes the party's trading
// @Tags         parties
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.PartyStatisticsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id}/statistics [get]
// @Router       /suppliers/{id}/statistics [get]
func (h *PartyHandler) Statistics(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	stats, err := h.parties.Statistics(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Documents godoc
// @Summary      List a party's documents
// @Description  Lists the party's sales (customers) or purchases (suppliers)
// @Tags         parties
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]tradeapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id}/sales [get]
// @Router       /suppliers/{id}/purchases [get]
func (h *PartyHandler) Documents(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	if _, err := h.parties.GetByID(c.Request.Context(), h.kind, id); err != nil {
		h.HandleError(c, err)
		return
	}
	kind := trade.KindSale
	if h.kind == partner.PartyKindSupplier {
		kind = trade.KindPurchase
	}
	docs, total, err := h.documents.List(c.Request.Context(), kind, tradeapp.DocumentListFilter{
		PartyID:  &id,
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, q.Page, q.PageSize)
}

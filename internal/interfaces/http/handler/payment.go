package handler

import (
	"net/http"
	"time"

	partnerapp "github.com/dinarbooks/backend/internal/application/partner"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/dinarbooks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler serves customer receipts or supplier payments
type PaymentHandler struct {
	BaseHandler
	kind       partner.PartyKind
	partyField string
	payments   *partnerapp.PaymentService
}

// NewCustomerPaymentHandler creates the handler mounted at /api/payments/customers
func NewCustomerPaymentHandler(payments *partnerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{kind: partner.PartyKindCustomer, partyField: "customer_id", payments: payments}
}

// NewSupplierPaymentHandler creates the handler mounted at /api/payments/suppliers
func NewSupplierPaymentHandler(payments *partnerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{kind: partner.PartyKindSupplier, partyField: "supplier_id", payments: payments}
}

// PaymentRequest records or replaces a payment. Bank fields apply to
// bank_transfer and cheque; cheque_number and cheque_date to cheque only.
type PaymentRequest struct {
	CustomerID    *uuid.UUID      `json:"customer_id"`
	SupplierID    *uuid.UUID      `json:"supplier_id"`
	AmountIQD     decimal.Decimal `json:"amount_iqd" binding:"decimal_gte0" example:"250000"`
	AmountUSD     decimal.Decimal `json:"amount_usd" binding:"decimal_gte0" example:"0"`
	PaymentMethod string          `json:"payment_method" binding:"required,oneof=cash bank_transfer cheque" example:"cash"`
	BankName      string          `json:"bank_name" binding:"max=200"`
	ChequeNumber  string          `json:"cheque_number" binding:"max=100"`
	ChequeDate    string          `json:"cheque_date" binding:"omitempty,iso_date"`
	Notes         string          `json:"notes" binding:"max=2000"`
	Date          string          `json:"date" binding:"omitempty,iso_date"`
}

// PaymentListQuery filters a payment list
type PaymentListQuery struct {
	dto.ListRequest
	PartyID string `form:"party_id"`
}

type paymentDates struct {
	cheque *time.Time
	date   *time.Time
}

func (h *PaymentHandler) dates(c *gin.Context, req *PaymentRequest) (paymentDates, bool) {
	cheque, err := dto.ParseOptionalDate(req.ChequeDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid cheque_date")
		return paymentDates{}, false
	}
	date, err := dto.ParseOptionalDate(req.Date)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid date")
		return paymentDates{}, false
	}
	return paymentDates{cheque: cheque, date: date}, true
}

// List godoc
// @Summary      List payments
// @Description  Returns a page of payments, newest first
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Param        party_id query string false "Customer or supplier" format(uuid)
// @Success      200 {object} dto.Response{data=[]partnerapp.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/customers [get]
// @Router       /payments/suppliers [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var q PaymentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()
	partyID, ok := h.parseOptionalUUID(c, "party_id", q.PartyID)
	if !ok {
		return
	}

	payments, total, err := h.payments.List(c.Request.Context(), h.kind, partnerapp.PaymentListFilter{
		PartyID:  partyID,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, q.Page, q.PageSize)
}

// Create godoc
// @Summary      Record a payment
// @Description  Records a payment and posts it to the party's ledger
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body PaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=partnerapp.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/customers [post]
// @Router       /payments/suppliers [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	party := req.CustomerID
	if h.kind == partner.PartyKindSupplier {
		party = req.SupplierID
	}
	if party == nil || *party == uuid.Nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed",
			middleware.GetRequestID(c), []dto.ValidationDetail{{Field: h.partyField, Message: "This field is required"}}))
		return
	}
	d, ok := h.dates(c, &req)
	if !ok {
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), h.kind, partnerapp.CreatePaymentRequest{
		PartyID:      *party,
		AmountIQD:    req.AmountIQD,
		AmountUSD:    req.AmountUSD,
		Method:       req.PaymentMethod,
		BankName:     req.BankName,
		ChequeNumber: req.ChequeNumber,
		ChequeDate:   d.cheque,
		Notes:        req.Notes,
		Date:         d.date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// GetByID godoc
// @Summary      Get a payment
// @Description  Returns one payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/customers/{id} [get]
// @Router       /payments/suppliers/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(c.Request.Context(), h.kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Update godoc
// @Summary      Update a payment
// @Description  Changes a payment; the ledger receives a correcting entry for the difference
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body PaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=partnerapp.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/customers/{id} [put]
// @Router       /payments/suppliers/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, ok := h.dates(c, &req)
	if !ok {
		return
	}

	payment, err := h.payments.Update(c.Request.Context(), h.kind, id, partnerapp.UpdatePaymentRequest{
		AmountIQD:    req.AmountIQD,
		AmountUSD:    req.AmountUSD,
		Method:       req.PaymentMethod,
		BankName:     req.BankName,
		ChequeNumber: req.ChequeNumber,
		ChequeDate:   d.cheque,
		Notes:        req.Notes,
		Date:         d.date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Delete godoc
// @Summary      Delete a payment
// @Description  Removes a payment and posts a reversing ledger entry
// @Tags         payments
// @Param        id path string true "ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/customers/{id} [delete]
// @Router       /payments/suppliers/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), h.kind, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

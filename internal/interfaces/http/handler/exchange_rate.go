package handler

import (
	"net/http"
	"time"

	currencyapp "github.com/dinarbooks/backend/internal/application/currency"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ExchangeRateHandler serves the USD to IQD rate history
type ExchangeRateHandler struct {
	BaseHandler
	rates *currencyapp.Service
}

// NewExchangeRateHandler creates a new ExchangeRateHandler
func NewExchangeRateHandler(rates *currencyapp.Service) *ExchangeRateHandler {
	return &ExchangeRateHandler{rates: rates}
}

// CreateExchangeRateRequest records a new rate
type CreateExchangeRateRequest struct {
	UsdToIqdRate  decimal.Decimal `json:"usd_to_iqd_rate" example:"1310"`
	EffectiveDate string          `json:"effective_date" binding:"required,iso_date" example:"2024-02-01"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// ConvertQuery is the query of a display conversion
type ConvertQuery struct {
	Amount string `form:"amount" binding:"required"`
	From   string `form:"from" binding:"required,oneof=IQD USD iqd usd"`
}

// List godoc
// @ID           listExchangeRates
// @Summary      List exchange rates
// @Description  Returns the rate history, newest first
// @Tags         exchange-rates
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]currencyapp.ExchangeRateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exchange-rates [get]
func (h *ExchangeRateHandler) List(c *gin.Context) {
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	q.Normalize()

	rates, total, err := h.rates.List(c.Request.Context(), currencyapp.ListFilter{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rates, total, q.Page, q.PageSize)
}

// Current godoc
// @ID           getCurrentExchangeRate
// @Summary      Get the current exchange rate
// @Description  Returns the rate in force now
// @Tags         exchange-rates
// @Produce      json
// @Success      200 {object} dto.Response{data=currencyapp.ExchangeRateResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exchange-rates/current [get]
func (h *ExchangeRateHandler) Current(c *gin.Context) {
	rate, err := h.rates.CurrentRate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// At godoc
// @ID           getExchangeRateAt
// @Summary      Get the exchange rate at an instant
// @Description  Returns the rate in force at the instant query parameter
// @Tags         exchange-rates
// @Produce      json
// @Param        instant query string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=currencyapp.ExchangeRateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exchange-rates/at [get]
func (h *ExchangeRateHandler) At(c *gin.Context) {
	raw := c.Query("instant")
	if raw == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "instant is required")
		return
	}
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		instant, err = dto.ParseDate(raw)
	}
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "instant must be RFC 3339 or YYYY-MM-DD")
		return
	}

	rate, err := h.rates.RateAt(c.Request.Context(), instant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// Convert godoc
// @ID           convertCurrency
// @Summary      Convert an amount
// @Description  Estimates an amount in the other currency at the current rate
// @Tags         exchange-rates
// @Produce      json
// @Param        amount query string true "Decimal amount"
// @Param        from query string true "Source currency" Enums(IQD, USD)
// @Success      200 {object} dto.Response{data=currencyapp.ConvertResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exchange-rates/convert [get]
func (h *ExchangeRateHandler) Convert(c *gin.Context) {
	var q ConvertQuery
	if !h.bindQuery(c, &q) {
		return
	}
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "amount must be a decimal number")
		return
	}
	from, err := valueobject.ParseCurrency(q.From)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	result, err := h.rates.Convert(c.Request.Context(), currencyapp.ConvertRequest{Amount: amount, From: from})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Create godoc
// @ID           createExchangeRate
// @Summary      Record an exchange rate
// @Description  Appends a rate. Earlier rates are never modified
// @Tags         exchange-rates
// @Accept       json
// @Produce      json
// @Param        request body CreateExchangeRateRequest true "Exchange rate"
// @Success      201 {object} dto.Response{data=currencyapp.ExchangeRateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exchange-rates [post]
func (h *ExchangeRateHandler) Create(c *gin.Context) {
	var req CreateExchangeRateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	effective, err := dto.ParseDate(req.EffectiveDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
		return
	}

	rate, err := h.rates.AddRate(c.Request.Context(), currencyapp.AddRateRequest{
		UsdToIqdRate: req.UsdToIqdRate,
		EffectiveAt:  effective,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}

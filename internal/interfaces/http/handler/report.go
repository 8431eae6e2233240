package handler

import (
	reportapp "github.com/dinarbooks/backend/internal/application/report"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard and read-only reports
type ReportHandler struct {
	BaseHandler
	reports *reportapp.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *reportapp.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ReportQuery is the period and ranking size shared by report routes
type ReportQuery struct {
	dto.PeriodQuery
	TopN int `form:"top_n" binding:"omitempty,min=1,max=100"`
}

func (h *ReportHandler) period(c *gin.Context) (reportapp.PeriodFilter, bool) {
	var q ReportQuery
	if !h.bindQuery(c, &q) {
		return reportapp.PeriodFilter{}, false
	}
	start, end, ok := h.parsePeriod(c, q.PeriodQuery)
	if !ok {
		return reportapp.PeriodFilter{}, false
	}
	return reportapp.PeriodFilter{StartDate: start, EndDate: end, TopN: q.TopN}, true
}

// Dashboard godoc
// @ID           getDashboard
// @Summary      Dashboard figures
// @Description  Returns the headline figures; the window defaults to the last 30 days
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=reportapp.DashboardResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.Dashboard(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// SalesSummary godoc
// @ID           getSalesSummary
// @Summary      Sales summary
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.DocumentSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/sales/summary [get]
func (h *ReportHandler) SalesSummary(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.SalesSummary(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// PurchasesSummary godoc
// @ID           getPurchasesSummary
// @Summary      Purchases summary
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.DocumentSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/purchases/summary [get]
func (h *ReportHandler) PurchasesSummary(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.PurchasesSummary(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// InventoryStatus godoc
// @ID           getInventoryStatus
// @Summary      Inventory status
// @Tags         reports
// @Produce      json
// @Param        threshold query int false "Low-stock threshold"
// @Success      200 {object} dto.Response{data=report.InventoryStatus}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/inventory/status [get]
func (h *ReportHandler) InventoryStatus(c *gin.Context) {
	threshold, ok := h.queryInt(c, "threshold", -1)
	if !ok {
		return
	}
	out, err := h.reports.InventoryStatus(c.Request.Context(), threshold)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// BestSelling godoc
// @ID           getBestSelling
// @Summary      Best-selling products
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        top_n query int false "Ranking size" maximum(100)
// @Success      200 {object} dto.Response{data=[]report.ProductRanking}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/best-selling [get]
func (h *ReportHandler) BestSelling(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.BestSelling(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// CustomerAnalysis godoc
// @ID           getCustomerAnalysis
// @Summary      Top customers
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        top_n query int false "Ranking size" maximum(100)
// @Success      200 {object} dto.Response{data=[]report.PartyRanking}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/customer-analysis [get]
func (h *ReportHandler) CustomerAnalysis(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.CustomerAnalysis(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// SupplierAnalysis godoc
// @ID           getSupplierAnalysis
// @Summary      Top suppliers
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        top_n query int false "Ranking size" maximum(100)
// @Success      200 {object} dto.Response{data=[]report.PartyRanking}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/supplier-analysis [get]
func (h *ReportHandler) SupplierAnalysis(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.SupplierAnalysis(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// MovementLogQuery filters the movement log
type MovementLogQuery struct {
	dto.PeriodQuery
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Type      string `form:"movement_type" binding:"omitempty,oneof=in out"`
	Reason    string `form:"reason" binding:"omitempty,oneof=manual adjustment initial sale purchase return"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=5000"`
}

// InventoryMovements godoc
// @ID           listInventoryMovements
// @Summary      Stock movement log
// @Description  Lists stock movements across products
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Param        product_id query string false "Product" format(uuid)
// @Param        movement_type query string false "Direction" Enums(in, out)
// @Param        reason query string false "Reason" Enums(manual, adjustment, initial, sale, purchase, return)
// @Param        limit query int false "Maximum entries" maximum(5000)
// @Success      200 {object} dto.Response{data=[]report.MovementLogEntry}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/inventory/movements [get]
func (h *ReportHandler) InventoryMovements(c *gin.Context) {
	var q MovementLogQuery
	if !h.bindQuery(c, &q) {
		return
	}
	start, end, ok := h.parsePeriod(c, q.PeriodQuery)
	if !ok {
		return
	}
	productID, ok := h.parseOptionalUUID(c, "product_id", q.ProductID)
	if !ok {
		return
	}
	out, err := h.reports.InventoryMovements(c.Request.Context(), reportapp.MovementQuery{
		PeriodFilter: reportapp.PeriodFilter{StartDate: start, EndDate: end},
		ProductID:    productID,
		Type:         q.Type,
		Reason:       q.Reason,
		Limit:        q.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// ProfitLoss godoc
// @ID           getProfitLoss
// @Summary      Profit and loss
// @Description  Sales net of returns minus purchases net of returns, in both currencies
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.ProfitLoss}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/profit-loss [get]
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	out, err := h.reports.ProfitLoss(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// InventoryAnalysisQuery selects the analysis
type InventoryAnalysisQuery struct {
	AnalysisType string `form:"analysis_type" binding:"required,oneof=value turnover"`
	Days         int    `form:"days" binding:"omitempty,min=1,max=3650"`
}

// InventoryAnalysis godoc
// @ID           getInventoryAnalysis
// @Summary      Inventory analysis
// @Description  Stock value or turnover over the last days
// @Tags         reports
// @Produce      json
// @Param        analysis_type query string true "Analysis" Enums(value, turnover)
// @Param        days query int false "Turnover window in days" maximum(3650)
// @Success      200 {object} dto.Response{data=reportapp.InventoryAnalysisResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory-analysis [get]
func (h *ReportHandler) InventoryAnalysis(c *gin.Context) {
	var q InventoryAnalysisQuery
	if !h.bindQuery(c, &q) {
		return
	}
	out, err := h.reports.InventoryAnalysis(c.Request.Context(), q.AnalysisType, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

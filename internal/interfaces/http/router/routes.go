package router

import (
	"github.com/dinarbooks/backend/internal/interfaces/http/handler"
)

// Handlers bundles every API handler the router mounts
type Handlers struct {
	ExchangeRates    *handler.ExchangeRateHandler
	Customers        *handler.PartyHandler
	Suppliers        *handler.PartyHandler
	Products         *handler.ProductHandler
	Sales            *handler.DocumentHandler
	Purchases        *handler.DocumentHandler
	CustomerPayments *handler.PaymentHandler
	SupplierPayments *handler.PaymentHandler
	Reports          *handler.ReportHandler
	// Backups is optional; the routes are mounted when it is set
	Backups *handler.BackupHandler
}

// RegisterAPI registers every domain group on r
func RegisterAPI(r *Router, h Handlers) {
	r.Register(exchangeRateRoutes(h.ExchangeRates))
	r.Register(partyRoutes("customers", h.Customers, "/sales"))
	r.Register(partyRoutes("suppliers", h.Suppliers, "/purchases"))
	r.Register(productRoutes(h.Products))
	r.Register(documentRoutes("sales", h.Sales))
	r.Register(documentRoutes("purchases", h.Purchases))

	payments := NewDomainGroup("payments", "/payments")
	paymentRoutes(payments.Group("customer-payments", "/customers"), h.CustomerPayments)
	paymentRoutes(payments.Group("supplier-payments", "/suppliers"), h.SupplierPayments)
	r.Register(payments)

	r.Register(NewDomainGroup("dashboard", "/dashboard").GET("", h.Reports.Dashboard))
	r.Register(reportRoutes(h.Reports))
	r.Register(NewDomainGroup("inventory-analysis", "/inventory-analysis").GET("", h.Reports.InventoryAnalysis))
	if h.Backups != nil {
		r.Register(backupRoutes(h.Backups))
	}
}

func backupRoutes(h *handler.BackupHandler) *DomainGroup {
	return NewDomainGroup("backups", "/backups").
		GET("", h.List).
		POST("", h.Create).
		GET("/:name", h.Download).
		DELETE("/:name", h.Delete).
		POST("/:name/restore", h.Restore)
}

func exchangeRateRoutes(h *handler.ExchangeRateHandler) *DomainGroup {
	return NewDomainGroup("exchange-rates", "/exchange-rates").
		GET("", h.List).
		POST("", h.Create).
		GET("/current", h.Current).
		GET("/at", h.At).
		GET("/convert", h.Convert)
}

func partyRoutes(name string, h *handler.PartyHandler, documentsPath string) *DomainGroup {
	return NewDomainGroup(name, "/"+name).
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		GET("/:id/transactions", h.Transactions).
		GET("/:id/statistics", h.Statistics).
		GET("/:id"+documentsPath, h.Documents)
}

func productRoutes(h *handler.ProductHandler) *DomainGroup {
	return NewDomainGroup("products", "/products").
		GET("", h.List).
		POST("", h.Create).
		GET("/low-stock", h.LowStock).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		GET("/:id/movements", h.Movements).
		POST("/:id/movements", h.RecordMovement).
		POST("/:id/adjust", h.Adjust)
}

func documentRoutes(name string, h *handler.DocumentHandler) *DomainGroup {
	return NewDomainGroup(name, "/"+name).
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/complete", h.Complete).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/reopen", h.Reopen).
		POST("/:id/return", h.Return).
		GET("/:id/returns", h.Returns)
}

func paymentRoutes(dg *DomainGroup, h *handler.PaymentHandler) {
	dg.GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func reportRoutes(h *handler.ReportHandler) *DomainGroup {
	return NewDomainGroup("reports", "/reports").
		GET("/sales/summary", h.SalesSummary).
		GET("/purchases/summary", h.PurchasesSummary).
		GET("/inventory/status", h.InventoryStatus).
		GET("/inventory/movements", h.InventoryMovements).
		GET("/profit-loss", h.ProfitLoss).
		GET("/best-selling", h.BestSelling).
		GET("/customer-analysis", h.CustomerAnalysis).
		GET("/supplier-analysis", h.SupplierAnalysis)
}

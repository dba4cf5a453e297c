package router

import (
	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/handlers"
	"pyme_pos_backend/internal/middleware"
)

// Tenant roles. Viewers can read everything but mutate nothing; sellers run
// the counter; owner/admin manage the catalog and the books.
const (
	roleOwner  = "owner"
	roleAdmin  = "admin"
	roleSeller = "seller"
	roleViewer = "viewer"
)

// SetupProductRoutes sets up the catalog routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
		productRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), productHandler.CreateProduct)
		productRoutes.PUT("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), productHandler.DeactivateProduct)
	}

	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", productHandler.GetCategories)
		categoryRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), productHandler.CreateCategory)
	}
}

// SetupStockRoutes sets up the stock ledger routes.
func SetupStockRoutes(authenticatedGroup *gin.RouterGroup, stockHandler *handlers.StockHandler) {
	stockRoutes := authenticatedGroup.Group("/stock")
	{
		stockRoutes.GET("/movements", stockHandler.GetMovements)
		stockRoutes.GET("/low", stockHandler.GetLowStockProducts)
		stockRoutes.POST("/adjustments", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), stockHandler.AdjustStock)
		stockRoutes.POST("/purchases", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), stockHandler.RegisterPurchase)
	}
}

// SetupSaleRoutes sets up the point-of-sale routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), saleHandler.CreateSale)
		saleRoutes.PATCH("/:id/cancel", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), saleHandler.CancelSale)
	}
}

// SetupCustomerRoutes sets up the customer and receivables routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	{
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/debtors", customerHandler.GetCustomersWithDebt)
		customerRoutes.GET("/overdue", customerHandler.GetOverdueEntries)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.GET("/:id/account", customerHandler.GetAccountStatement)
		customerRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), customerHandler.CreateCustomer)
		customerRoutes.PUT("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), customerHandler.DeactivateCustomer)
		customerRoutes.POST("/:id/payments", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), customerHandler.RegisterPayment)
	}
	authenticatedGroup.PATCH("/account-entries/:entryId/promised-date",
		middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), customerHandler.UpdatePromisedDate)
}

// SetupSupplierRoutes sets up the supplier and payables routes.
func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	{
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/payables", supplierHandler.GetPayableSummary)
		supplierRoutes.GET("/:id", supplierHandler.GetSupplierByID)
		supplierRoutes.GET("/:id/account", supplierHandler.GetAccountStatement)
		supplierRoutes.GET("/:id/unpaid", supplierHandler.GetUnpaidPurchases)
		supplierRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), supplierHandler.CreateSupplier)
		supplierRoutes.PUT("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), supplierHandler.UpdateSupplier)
		supplierRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), supplierHandler.DeactivateSupplier)
		supplierRoutes.POST("/:id/purchases", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), supplierHandler.CreatePurchase)
		supplierRoutes.POST("/:id/payments", middleware.RoleAuthMiddleware(roleOwner, roleAdmin), supplierHandler.CreatePayment)
	}
}

// SetupCashRegisterRoutes sets up the cash session routes.
func SetupCashRegisterRoutes(authenticatedGroup *gin.RouterGroup, registerHandler *handlers.CashRegisterHandler) {
	registerRoutes := authenticatedGroup.Group("/cash-registers")
	{
		registerRoutes.GET("", registerHandler.GetRegisters)
		registerRoutes.GET("/open", registerHandler.GetOpenRegister)
		registerRoutes.GET("/:id", registerHandler.GetRegisterByID)
		registerRoutes.POST("/open", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), registerHandler.OpenRegister)
		registerRoutes.POST("/close", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), registerHandler.CloseRegister)
	}
}

// SetupQuoteRoutes sets up the quote routes.
func SetupQuoteRoutes(authenticatedGroup *gin.RouterGroup, quoteHandler *handlers.QuoteHandler) {
	quoteRoutes := authenticatedGroup.Group("/quotes")
	{
		quoteRoutes.GET("", quoteHandler.GetQuotes)
		quoteRoutes.GET("/:id", quoteHandler.GetQuoteByID)
		quoteRoutes.POST("", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.CreateQuote)
		quoteRoutes.PATCH("/:id/send", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.SendQuote)
		quoteRoutes.PATCH("/:id/approve", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.ApproveQuote)
		quoteRoutes.PATCH("/:id/reject", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.RejectQuote)
		quoteRoutes.POST("/:id/convert", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.ConvertToOrder)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, quoteHandler *handlers.QuoteHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.GET("", quoteHandler.GetOrders)
		orderRoutes.GET("/:id", quoteHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.UpdateOrderStatus)
		orderRoutes.POST("/:id/sale", middleware.RoleAuthMiddleware(roleOwner, roleAdmin, roleSeller), quoteHandler.GenerateSale)
	}
}

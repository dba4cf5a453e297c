package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/handlers"
	"pyme_pos_backend/internal/middleware"
	"pyme_pos_backend/internal/repositories"
	"pyme_pos_backend/internal/services"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Repositories
	txManager := repositories.NewSQLTxManager(db)
	authRepo := repositories.NewAuthRepository(db)
	productRepo := repositories.NewProductRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	registerRepo := repositories.NewCashRegisterRepository(db)
	quoteRepo := repositories.NewQuoteRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, txManager)
	productService := services.NewProductService(productRepo, movementRepo, txManager)
	stockService := services.NewStockService(productRepo, movementRepo, txManager)
	saleService := services.NewSaleService(saleRepo, productRepo, movementRepo, customerRepo, txManager)
	customerService := services.NewCustomerService(customerRepo, txManager)
	supplierService := services.NewSupplierService(supplierRepo, txManager)
	registerService := services.NewCashRegisterService(registerRepo, saleRepo)
	quoteService := services.NewQuoteService(quoteRepo, productRepo, saleService, txManager)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	stockHandler := handlers.NewStockHandler(stockService)
	saleHandler := handlers.NewSaleHandler(saleService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	registerHandler := handlers.NewCashRegisterHandler(registerService)
	quoteHandler := handlers.NewQuoteHandler(quoteService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupStockRoutes(authenticated, stockHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupSupplierRoutes(authenticated, supplierHandler)
		SetupCashRegisterRoutes(authenticated, registerHandler)
		SetupQuoteRoutes(authenticated, quoteHandler)
		SetupOrderRoutes(authenticated, quoteHandler)
	}
}

// SetupPublicAuthRoutes wires the unauthenticated auth endpoints.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedAuthRoutes wires the auth endpoints that need a session.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetMe)
}

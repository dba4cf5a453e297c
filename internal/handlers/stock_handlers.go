package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// StockHandler holds the stock service.
type StockHandler struct {
	stockService services.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(ss services.StockService) *StockHandler {
	return &StockHandler{stockService: ss}
}

// AdjustStock handles a signed manual stock correction.
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	movement, err := h.stockService.AdjustStock(tenantID(c), req)
	if err != nil {
		respondServiceError(c, err, "AdjustStock: Error from stockService.AdjustStock")
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// RegisterPurchase handles a goods-in: stock up, cost price refreshed.
func (h *StockHandler) RegisterPurchase(c *gin.Context) {
	var req services.RegisterPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	movements, err := h.stockService.RegisterPurchase(tenantID(c), req)
	if err != nil {
		respondServiceError(c, err, "RegisterPurchase: Error from stockService.RegisterPurchase")
		return
	}
	c.JSON(http.StatusCreated, movements)
}

// GetMovements handles listing the stock ledger, optionally filtered by
// product and movement type.
func (h *StockHandler) GetMovements(c *gin.Context) {
	var productID *int64
	if s := c.Query("product_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product_id format.", err.Error()))
			return
		}
		productID = &id
	}
	var movementType *string
	if s := c.Query("movement_type"); s != "" {
		movementType = &s
	}
	page, pageSize := parsePagination(c)

	movements, total, err := h.stockService.GetMovements(tenantID(c), productID, movementType, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetMovements: Error from stockService.GetMovements")
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	respondPage(c, movements, total, page, pageSize)
}

// GetLowStockProducts handles the reorder report.
func (h *StockHandler) GetLowStockProducts(c *gin.Context) {
	products, err := h.stockService.GetLowStockProducts(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetLowStockProducts: Error from stockService.GetLowStockProducts")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// CreateSale handles the point-of-sale checkout.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	sale, err := h.saleService.CreateSale(tenantID(c), req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientStock) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient stock for one or more items.", err.Error()))
			return
		}
		respondServiceError(c, err, "CreateSale: Error from saleService.CreateSale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales handles listing sales with filters.
func (h *SaleHandler) GetSales(c *gin.Context) {
	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	sales, total, err := h.saleService.GetSales(tenantID(c), filters)
	if err != nil {
		respondServiceError(c, err, "GetSales: Error from saleService.GetSales")
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	respondPage(c, sales, total, filters.Page, filters.PageSize)
}

// GetSaleByID handles fetching a single sale with its items.
func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	sale, err := h.saleService.GetSaleByID(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetSaleByID: Error from saleService.GetSaleByID")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// CancelSale handles voiding a sale: stock comes back, the customer ledger
// is compensated, and the sale stays on the books as cancelled.
func (h *SaleHandler) CancelSale(c *gin.Context) {
	sale, err := h.saleService.CancelSale(tenantID(c), c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "CancelSale: Error from saleService.CancelSale")
		return
	}
	c.JSON(http.StatusOK, sale)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// QuoteHandler holds the quote service, which also owns orders.
type QuoteHandler struct {
	quoteService services.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(qs services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: qs}
}

// CreateQuote handles pricing a quote from current catalog prices.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req services.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	quote, err := h.quoteService.CreateQuote(tenantID(c), req)
	if err != nil {
		respondServiceError(c, err, "CreateQuote: Error from quoteService.CreateQuote")
		return
	}
	c.JSON(http.StatusCreated, quote)
}

// GetQuotes handles listing quotes, optionally by status.
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}
	page, pageSize := parsePagination(c)

	quotes, total, err := h.quoteService.GetQuotes(tenantID(c), status, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetQuotes: Error from quoteService.GetQuotes")
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	respondPage(c, quotes, total, page, pageSize)
}

// GetQuoteByID handles fetching a single quote with its items.
func (h *QuoteHandler) GetQuoteByID(c *gin.Context) {
	quote, err := h.quoteService.GetQuoteByID(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetQuoteByID: Error from quoteService.GetQuoteByID")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// SendQuote moves a draft quote to sent.
func (h *QuoteHandler) SendQuote(c *gin.Context) {
	quote, err := h.quoteService.SendQuote(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "SendQuote: Error from quoteService.SendQuote")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ApproveQuote moves a sent quote to approved.
func (h *QuoteHandler) ApproveQuote(c *gin.Context) {
	quote, err := h.quoteService.ApproveQuote(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "ApproveQuote: Error from quoteService.ApproveQuote")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// RejectQuote moves a sent quote to rejected.
func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	quote, err := h.quoteService.RejectQuote(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "RejectQuote: Error from quoteService.RejectQuote")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ConvertToOrder turns an approved quote into a pending order.
func (h *QuoteHandler) ConvertToOrder(c *gin.Context) {
	order, err := h.quoteService.ConvertToOrder(tenantID(c), c.Param("id"), currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "ConvertToOrder: Error from quoteService.ConvertToOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles listing orders, optionally by status.
func (h *QuoteHandler) GetOrders(c *gin.Context) {
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}
	page, pageSize := parsePagination(c)

	orders, total, err := h.quoteService.GetOrders(tenantID(c), status, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetOrders: Error from quoteService.GetOrders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondPage(c, orders, total, page, pageSize)
}

// GetOrderByID handles fetching a single order with its items.
func (h *QuoteHandler) GetOrderByID(c *gin.Context) {
	order, err := h.quoteService.GetOrderByID(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetOrderByID: Error from quoteService.GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order through its fulfilment states. Completion
// is not accepted here; it happens through sale generation.
func (h *QuoteHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.quoteService.UpdateOrderStatus(tenantID(c), c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err, "UpdateOrderStatus: Error from quoteService.UpdateOrderStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GenerateSale settles an order through the standard checkout flow and
// completes it.
func (h *QuoteHandler) GenerateSale(c *gin.Context) {
	var req services.GenerateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	sale, err := h.quoteService.GenerateSale(tenantID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "GenerateSale: Error from quoteService.GenerateSale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

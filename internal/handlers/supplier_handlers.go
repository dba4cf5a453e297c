package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// SupplierHandler holds the supplier service.
type SupplierHandler struct {
	supplierService services.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(ss services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: ss}
}

// CreateSupplier handles creating a supplier.
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	created, err := h.supplierService.CreateSupplier(tenantID(c), &supplier)
	if err != nil {
		respondServiceError(c, err, "CreateSupplier: Error from supplierService.CreateSupplier")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetSuppliers handles listing suppliers with optional search.
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	var search *string
	if s := c.Query("search"); s != "" {
		search = &s
	}
	page, pageSize := parsePagination(c)

	suppliers, total, err := h.supplierService.GetSuppliers(tenantID(c), search, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetSuppliers: Error from supplierService.GetSuppliers")
		return
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	respondPage(c, suppliers, total, page, pageSize)
}

// GetSupplierByID handles fetching a single supplier.
func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	supplier, err := h.supplierService.GetSupplierByID(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetSupplierByID: Error from supplierService.GetSupplierByID")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// UpdateSupplier handles updating a supplier's profile.
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updated, err := h.supplierService.UpdateSupplier(tenantID(c), c.Param("id"), &supplier)
	if err != nil {
		respondServiceError(c, err, "UpdateSupplier: Error from supplierService.UpdateSupplier")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateSupplier handles soft-deleting a supplier. Suppliers still owed
// money cannot be deactivated.
func (h *SupplierHandler) DeactivateSupplier(c *gin.Context) {
	if err := h.supplierService.DeactivateSupplier(tenantID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "DeactivateSupplier: Error from supplierService.DeactivateSupplier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deactivated successfully"})
}

// CreatePurchase records a purchase on account, optionally as an
// installment plan.
func (h *SupplierHandler) CreatePurchase(c *gin.Context) {
	var req services.CreateSupplierPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	entries, err := h.supplierService.CreatePurchase(tenantID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "CreatePurchase: Error from supplierService.CreatePurchase")
		return
	}
	c.JSON(http.StatusCreated, entries)
}

// CreatePayment records money paid to a supplier.
func (h *SupplierHandler) CreatePayment(c *gin.Context) {
	var req services.CreateSupplierPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	payment, err := h.supplierService.CreatePayment(tenantID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "CreatePayment: Error from supplierService.CreatePayment")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetAccountStatement handles the supplier ledger view.
func (h *SupplierHandler) GetAccountStatement(c *gin.Context) {
	statement, err := h.supplierService.GetAccountStatement(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetAccountStatement: Error from supplierService.GetAccountStatement")
		return
	}
	c.JSON(http.StatusOK, statement)
}

// GetUnpaidPurchases handles listing a supplier's open purchases.
func (h *SupplierHandler) GetUnpaidPurchases(c *gin.Context) {
	entries, err := h.supplierService.GetUnpaidPurchases(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetUnpaidPurchases: Error from supplierService.GetUnpaidPurchases")
		return
	}
	if entries == nil {
		entries = []models.SupplierAccountEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetPayableSummary handles the accounts-payable dashboard numbers.
func (h *SupplierHandler) GetPayableSummary(c *gin.Context) {
	summary, err := h.supplierService.GetPayableSummary(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetPayableSummary: Error from supplierService.GetPayableSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

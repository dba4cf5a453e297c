package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func parseCustomerID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

// CreateCustomer handles creating a customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	created, err := h.customerService.CreateCustomer(tenantID(c), &customer)
	if err != nil {
		respondServiceError(c, err, "CreateCustomer: Error from customerService.CreateCustomer")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCustomers handles listing customers with optional search.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	var search *string
	if s := c.Query("search"); s != "" {
		search = &s
	}
	page, pageSize := parsePagination(c)

	customers, total, err := h.customerService.GetCustomers(tenantID(c), search, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetCustomers: Error from customerService.GetCustomers")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	respondPage(c, customers, total, page, pageSize)
}

// GetCustomerByID handles fetching a single customer.
func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	id, ok := parseCustomerID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomerByID(tenantID(c), id)
	if err != nil {
		respondServiceError(c, err, "GetCustomerByID: Error from customerService.GetCustomerByID")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles updating a customer's profile fields.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseCustomerID(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updated, err := h.customerService.UpdateCustomer(tenantID(c), id, &customer)
	if err != nil {
		respondServiceError(c, err, "UpdateCustomer: Error from customerService.UpdateCustomer")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateCustomer handles soft-deleting a customer. Customers with debt
// cannot be deactivated.
func (h *CustomerHandler) DeactivateCustomer(c *gin.Context) {
	id, ok := parseCustomerID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeactivateCustomer(tenantID(c), id); err != nil {
		respondServiceError(c, err, "DeactivateCustomer: Error from customerService.DeactivateCustomer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deactivated successfully"})
}

// GetAccountStatement handles the customer's ledger view.
func (h *CustomerHandler) GetAccountStatement(c *gin.Context) {
	id, ok := parseCustomerID(c, "id")
	if !ok {
		return
	}
	statement, err := h.customerService.GetAccountStatement(tenantID(c), id)
	if err != nil {
		respondServiceError(c, err, "GetAccountStatement: Error from customerService.GetAccountStatement")
		return
	}
	c.JSON(http.StatusOK, statement)
}

// RegisterPayment handles money received against a customer's account.
func (h *CustomerHandler) RegisterPayment(c *gin.Context) {
	id, ok := parseCustomerID(c, "id")
	if !ok {
		return
	}
	var req services.RegisterCustomerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	payment, err := h.customerService.RegisterPayment(tenantID(c), id, req)
	if err != nil {
		respondServiceError(c, err, "RegisterPayment: Error from customerService.RegisterPayment")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

type updatePromisedDateRequest struct {
	PromisedDate time.Time `json:"promised_date" binding:"required"`
}

// UpdatePromisedDate records when the customer promised to pay a debt entry.
func (h *CustomerHandler) UpdatePromisedDate(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("entryId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid entry ID format.", err.Error()))
		return
	}
	var req updatePromisedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	if err := h.customerService.UpdatePromisedDate(tenantID(c), entryID, req.PromisedDate); err != nil {
		respondServiceError(c, err, "UpdatePromisedDate: Error from customerService.UpdatePromisedDate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Promised date updated"})
}

// GetOverdueEntries handles the collections report: debts past their due or
// promised date.
func (h *CustomerHandler) GetOverdueEntries(c *gin.Context) {
	entries, err := h.customerService.GetOverdueEntries(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetOverdueEntries: Error from customerService.GetOverdueEntries")
		return
	}
	if entries == nil {
		entries = []models.CustomerAccountEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetCustomersWithDebt handles listing customers carrying a balance.
func (h *CustomerHandler) GetCustomersWithDebt(c *gin.Context) {
	customers, err := h.customerService.GetCustomersWithDebt(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetCustomersWithDebt: Error from customerService.GetCustomersWithDebt")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, customers)
}

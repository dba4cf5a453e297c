package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// ProductHandler holds the product service.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// CreateProduct handles creating a catalog product, optionally with an
// opening stock balance.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.CreatedBy = currentUserID(c)

	product, err := h.productService.CreateProduct(tenantID(c), req)
	if err != nil {
		respondServiceError(c, err, "CreateProduct: Error from productService.CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles listing the catalog with filters.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	products, total, err := h.productService.GetProducts(tenantID(c), filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from productService.GetProducts")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondPage(c, products, total, filters.Page, filters.PageSize)
}

// GetProductByID handles fetching a single product.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	product, err := h.productService.GetProductByID(tenantID(c), id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error from productService.GetProductByID")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles updating catalog fields. Stock is not touched here.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(tenantID(c), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateProduct: Error from productService.UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeactivateProduct handles soft-deleting a product.
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}

	if err := h.productService.DeactivateProduct(tenantID(c), id); err != nil {
		respondServiceError(c, err, "DeactivateProduct: Error from productService.DeactivateProduct")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated successfully"})
}

// CreateCategory handles creating a product category.
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	created, err := h.productService.CreateCategory(tenantID(c), &category)
	if err != nil {
		respondServiceError(c, err, "CreateCategory: Error from productService.CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCategories handles listing categories.
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetCategories: Error from productService.GetCategories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

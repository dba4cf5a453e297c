package services

import (
	"fmt"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// CreateProductRequest carries the catalog fields for a new product.
type CreateProductRequest struct {
	CategoryID     *int64         `json:"category_id"`
	Code           string         `json:"code" binding:"required"`
	Name           string         `json:"name" binding:"required"`
	Description    string         `json:"description"`
	CostPrice      int64          `json:"cost_price"`
	SalePrice      int64          `json:"sale_price" binding:"required,gt=0"`
	WholesalePrice *int64         `json:"wholesale_price"`
	InitialStock   int64          `json:"initial_stock"`
	MinimumStock   int64          `json:"minimum_stock"`
	Unit           string         `json:"unit"`
	TaxType        models.TaxType `json:"tax_type"`
	TrackInventory *bool          `json:"track_inventory"`
	CreatedBy      *int64         `json:"-"`
}

// UpdateProductRequest carries the mutable catalog fields. Stock is not here:
// it only moves through the stock ledger.
type UpdateProductRequest struct {
	CategoryID     *int64         `json:"category_id"`
	Code           string         `json:"code" binding:"required"`
	Name           string         `json:"name" binding:"required"`
	Description    string         `json:"description"`
	CostPrice      int64          `json:"cost_price"`
	SalePrice      int64          `json:"sale_price" binding:"required,gt=0"`
	WholesalePrice *int64         `json:"wholesale_price"`
	MinimumStock   int64          `json:"minimum_stock"`
	Unit           string         `json:"unit"`
	TaxType        models.TaxType `json:"tax_type"`
	TrackInventory *bool          `json:"track_inventory"`
}

// ProductService manages the catalog.
type ProductService interface {
	CreateProduct(tenantID string, req CreateProductRequest) (*models.Product, error)
	GetProductByID(tenantID string, id int64) (*models.Product, error)
	GetProducts(tenantID string, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(tenantID string, id int64, req UpdateProductRequest) (*models.Product, error)
	DeactivateProduct(tenantID string, id int64) error

	CreateCategory(tenantID string, category *models.Category) (*models.Category, error)
	GetCategories(tenantID string) ([]models.Category, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	txManager    repositories.TxManager
}

// NewProductService creates a new instance of ProductService.
func NewProductService(
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	tm repositories.TxManager,
) ProductService {
	return &productService{
		productRepo:  pr,
		movementRepo: mr,
		txManager:    tm,
	}
}

func (s *productService) CreateProduct(tenantID string, req CreateProductRequest) (*models.Product, error) {
	if req.SalePrice <= 0 {
		return nil, fmt.Errorf("%w: sale price must be positive", ErrValidation)
	}
	if req.InitialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock cannot be negative", ErrValidation)
	}
	taxType := req.TaxType
	if taxType == "" {
		taxType = models.TaxTypeStandard
	}
	if !taxType.Valid() {
		return nil, fmt.Errorf("%w: unknown tax type %q", ErrValidation, taxType)
	}
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	trackInventory := true
	if req.TrackInventory != nil {
		trackInventory = *req.TrackInventory
	}

	product := &models.Product{
		CategoryID:     req.CategoryID,
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		CostPrice:      req.CostPrice,
		SalePrice:      req.SalePrice,
		WholesalePrice: req.WholesalePrice,
		MinimumStock:   req.MinimumStock,
		Unit:           unit,
		TaxType:        taxType,
		TrackInventory: trackInventory,
	}
	if _, err := s.productRepo.CreateProduct(tenantID, product); err != nil {
		return nil, err
	}

	// An opening balance is a ledger movement like any other, so the
	// product's history starts at zero and explains itself.
	if req.InitialStock > 0 && trackInventory {
		err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
			if err := s.productRepo.UpdateStock(tx, tenantID, product.ID, req.InitialStock); err != nil {
				return err
			}
			movement := &models.StockMovement{
				ProductID:     product.ID,
				MovementType:  models.MovementTypeAdjustment,
				Quantity:      req.InitialStock,
				PreviousStock: 0,
				NewStock:      req.InitialStock,
				Notes:         "initial stock",
				CreatedBy:     req.CreatedBy,
			}
			_, err := s.movementRepo.CreateMovement(tx, tenantID, movement)
			return err
		})
		if err != nil {
			return nil, err
		}
		product.CurrentStock = req.InitialStock
	}
	return product, nil
}

func (s *productService) GetProductByID(tenantID string, id int64) (*models.Product, error) {
	return s.productRepo.GetProductByID(tenantID, id)
}

func (s *productService) GetProducts(tenantID string, filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.productRepo.GetProducts(tenantID, filters)
}

func (s *productService) UpdateProduct(tenantID string, id int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.SalePrice <= 0 {
		return nil, fmt.Errorf("%w: sale price must be positive", ErrValidation)
	}
	taxType := req.TaxType
	if taxType == "" {
		taxType = product.TaxType
	}
	if !taxType.Valid() {
		return nil, fmt.Errorf("%w: unknown tax type %q", ErrValidation, taxType)
	}

	product.CategoryID = req.CategoryID
	product.Code = req.Code
	product.Name = req.Name
	product.Description = req.Description
	product.CostPrice = req.CostPrice
	product.SalePrice = req.SalePrice
	product.WholesalePrice = req.WholesalePrice
	product.MinimumStock = req.MinimumStock
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	product.TaxType = taxType
	if req.TrackInventory != nil {
		product.TrackInventory = *req.TrackInventory
	}

	if err := s.productRepo.UpdateProduct(tenantID, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) DeactivateProduct(tenantID string, id int64) error {
	return s.productRepo.DeactivateProduct(tenantID, id)
}

func (s *productService) CreateCategory(tenantID string, category *models.Category) (*models.Category, error) {
	if category.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if _, err := s.productRepo.CreateCategory(tenantID, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *productService) GetCategories(tenantID string) ([]models.Category, error) {
	return s.productRepo.GetCategories(tenantID)
}

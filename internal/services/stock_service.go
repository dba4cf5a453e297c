package services

import (
	"fmt"
	"time"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// AdjustStockRequest corrects a product's stock by a signed quantity.
type AdjustStockRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
	CreatedBy *int64 `json:"-"`
}

// PurchaseItemRequest is one received line of a goods-in.
type PurchaseItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	UnitCost  *int64 `json:"unit_cost"`
}

// RegisterPurchaseRequest records received goods: stock goes up and, when a
// unit cost is given, the product's cost price is refreshed.
type RegisterPurchaseRequest struct {
	Reference string                `json:"reference"`
	Notes     string                `json:"notes"`
	Items     []PurchaseItemRequest `json:"items" binding:"required,dive"`
	CreatedBy *int64                `json:"-"`
}

// StockService owns the stock ledger. Stock only ever changes by appending a
// movement; the product counter is updated in the same transaction.
type StockService interface {
	// PostMovement appends one signed movement inside the caller's
	// transaction. The product row must not be locked by anyone else: the
	// method takes the row lock itself and computes new = previous + quantity.
	// It never rejects a negative result; callers that need an availability
	// guarantee must check before posting.
	PostMovement(tx repositories.SQLExecutor, tenantID string, productID int64, movementType string, quantity int64, reference, notes string, createdBy *int64) (*models.StockMovement, error)
	AdjustStock(tenantID string, req AdjustStockRequest) (*models.StockMovement, error)
	RegisterPurchase(tenantID string, req RegisterPurchaseRequest) ([]models.StockMovement, error)
	GetMovements(tenantID string, productID *int64, movementType *string, page, pageSize int) ([]models.StockMovement, int, error)
	GetLowStockProducts(tenantID string) ([]models.Product, error)
}

type stockService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	txManager    repositories.TxManager
}

// NewStockService creates a new instance of StockService.
func NewStockService(
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	tm repositories.TxManager,
) StockService {
	return &stockService{
		productRepo:  pr,
		movementRepo: mr,
		txManager:    tm,
	}
}

func (s *stockService) PostMovement(tx repositories.SQLExecutor, tenantID string, productID int64, movementType string, quantity int64, reference, notes string, createdBy *int64) (*models.StockMovement, error) {
	product, err := s.productRepo.GetProductByIDForUpdate(tx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.TrackInventory {
		return nil, fmt.Errorf("%w: product %s does not track inventory", ErrValidation, product.Code)
	}

	previous := product.CurrentStock
	newStock := previous + quantity

	if err := s.productRepo.UpdateStock(tx, tenantID, productID, newStock); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID:     productID,
		MovementType:  movementType,
		Quantity:      quantity,
		PreviousStock: previous,
		NewStock:      newStock,
		Reference:     reference,
		Notes:         notes,
		CreatedBy:     createdBy,
	}
	if _, err := s.movementRepo.CreateMovement(tx, tenantID, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *stockService) AdjustStock(tenantID string, req AdjustStockRequest) (*models.StockMovement, error) {
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity cannot be zero", ErrValidation)
	}
	var movement *models.StockMovement
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		var err error
		movement, err = s.PostMovement(tx, tenantID, req.ProductID, models.MovementTypeAdjustment,
			req.Quantity, "", req.Reason, req.CreatedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *stockService) RegisterPurchase(tenantID string, req RegisterPurchaseRequest) ([]models.StockMovement, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a purchase needs at least one item", ErrValidation)
	}
	reference := req.Reference
	if reference == "" {
		reference = fmt.Sprintf("PURCHASE-%d", time.Now().Unix())
	}

	var movements []models.StockMovement
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		for _, item := range req.Items {
			movement, err := s.PostMovement(tx, tenantID, item.ProductID, models.MovementTypePurchase,
				item.Quantity, reference, req.Notes, req.CreatedBy)
			if err != nil {
				return err
			}
			if item.UnitCost != nil {
				if err := updateCostPrice(tx, tenantID, item.ProductID, *item.UnitCost); err != nil {
					return err
				}
			}
			movements = append(movements, *movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// updateCostPrice refreshes the product's cost after a goods-in. The row is
// already locked by PostMovement within this transaction.
func updateCostPrice(tx repositories.SQLExecutor, tenantID string, productID int64, cost int64) error {
	_, err := tx.Exec(`UPDATE products SET cost_price = $1, updated_at = NOW()
	                   WHERE tenant_id = $2 AND id = $3`, cost, tenantID, productID)
	if err != nil {
		return fmt.Errorf("%w: updating cost price for product %d: %v", repositories.ErrDatabaseError, productID, err)
	}
	return nil
}

func (s *stockService) GetMovements(tenantID string, productID *int64, movementType *string, page, pageSize int) ([]models.StockMovement, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.movementRepo.GetMovements(tenantID, productID, movementType, page, pageSize)
}

func (s *stockService) GetLowStockProducts(tenantID string) ([]models.Product, error) {
	return s.productRepo.GetLowStockProducts(tenantID)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyme_pos_backend/internal/models"
)

func newStockServiceFixture(products ...*models.Product) (StockService, *fakeProductRepo, *fakeMovementRepo) {
	productRepo := newFakeProductRepo(products...)
	movementRepo := &fakeMovementRepo{}
	service := NewStockService(productRepo, movementRepo, &fakeTxManager{})
	return service, productRepo, movementRepo
}

func TestAdjustStockNegative(t *testing.T) {
	service, productRepo, movementRepo := newStockServiceFixture(
		trackedProduct(1, "YERBA-1KG", 25000, 10, models.TaxTypeReduced),
	)

	movement, err := service.AdjustStock(testTenant, AdjustStockRequest{
		ProductID: 1,
		Quantity:  -4,
		Reason:    "breakage",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MovementTypeAdjustment, movement.MovementType)
	assert.Equal(t, int64(-4), movement.Quantity)
	assert.Equal(t, int64(10), movement.PreviousStock)
	assert.Equal(t, int64(6), movement.NewStock)
	assert.Equal(t, "breakage", movement.Notes)

	product, _ := productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(6), product.CurrentStock)
	require.Len(t, movementRepo.movements, 1)
}

func TestAdjustStockAllowsGoingBelowZero(t *testing.T) {
	// Corrections record reality even when reality disagrees with the counter.
	service, productRepo, _ := newStockServiceFixture(
		trackedProduct(1, "ITEM", 1000, 2, models.TaxTypeExempt),
	)

	movement, err := service.AdjustStock(testTenant, AdjustStockRequest{ProductID: 1, Quantity: -5})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), movement.NewStock)

	product, _ := productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(-3), product.CurrentStock)
}

func TestAdjustStockZeroRejected(t *testing.T) {
	service, _, movementRepo := newStockServiceFixture(
		trackedProduct(1, "ITEM", 1000, 2, models.TaxTypeExempt),
	)

	_, err := service.AdjustStock(testTenant, AdjustStockRequest{ProductID: 1, Quantity: 0})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, movementRepo.movements)
}

func TestAdjustStockUntrackedProductRejected(t *testing.T) {
	untracked := trackedProduct(1, "SERVICE-FEE", 50000, 0, models.TaxTypeStandard)
	untracked.TrackInventory = false
	service, _, movementRepo := newStockServiceFixture(untracked)

	_, err := service.AdjustStock(testTenant, AdjustStockRequest{ProductID: 1, Quantity: 3})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, movementRepo.movements)
}

func TestRegisterPurchase(t *testing.T) {
	service, productRepo, movementRepo := newStockServiceFixture(
		trackedProduct(1, "COLA-2L", 55000, 4, models.TaxTypeStandard),
		trackedProduct(2, "YERBA-1KG", 25000, 0, models.TaxTypeReduced),
	)

	movements, err := service.RegisterPurchase(testTenant, RegisterPurchaseRequest{
		Reference: "FAC-001-0001234",
		Items: []PurchaseItemRequest{
			{ProductID: 1, Quantity: 24},
			{ProductID: 2, Quantity: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, models.MovementTypePurchase, movements[0].MovementType)
	assert.Equal(t, "FAC-001-0001234", movements[0].Reference)
	assert.Equal(t, int64(4), movements[0].PreviousStock)
	assert.Equal(t, int64(28), movements[0].NewStock)

	cola, _ := productRepo.GetProductByID(testTenant, 1)
	yerba, _ := productRepo.GetProductByID(testTenant, 2)
	assert.Equal(t, int64(28), cola.CurrentStock)
	assert.Equal(t, int64(10), yerba.CurrentStock)
	assert.Len(t, movementRepo.movements, 2)
}

func TestRegisterPurchaseEmptyRejected(t *testing.T) {
	service, _, _ := newStockServiceFixture()
	_, err := service.RegisterPurchase(testTenant, RegisterPurchaseRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetLowStockProducts(t *testing.T) {
	low := trackedProduct(1, "LOW", 1000, 2, models.TaxTypeExempt)
	low.MinimumStock = 5
	fine := trackedProduct(2, "FINE", 1000, 50, models.TaxTypeExempt)
	fine.MinimumStock = 5
	service, _, _ := newStockServiceFixture(low, fine)

	products, err := service.GetLowStockProducts(testTenant)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "LOW", products[0].Code)
}

package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

const testTenant = "9f6c2c4e-0000-0000-0000-000000000001"

type saleServiceFixture struct {
	service      SaleService
	saleRepo     *fakeSaleRepo
	productRepo  *fakeProductRepo
	movementRepo *fakeMovementRepo
	customerRepo *fakeCustomerRepo
	txManager    *fakeTxManager
}

func newSaleServiceFixture(products []*models.Product, customers []*models.Customer) *saleServiceFixture {
	f := &saleServiceFixture{
		saleRepo:     newFakeSaleRepo(),
		productRepo:  newFakeProductRepo(products...),
		movementRepo: &fakeMovementRepo{},
		customerRepo: newFakeCustomerRepo(customers...),
		txManager:    &fakeTxManager{},
	}
	f.service = NewSaleService(f.saleRepo, f.productRepo, f.movementRepo, f.customerRepo, f.txManager)
	return f
}

func trackedProduct(id int64, code string, price int64, stock int64, taxType models.TaxType) *models.Product {
	return &models.Product{
		ID:             id,
		TenantID:       testTenant,
		Code:           code,
		Name:           code,
		SalePrice:      price,
		CurrentStock:   stock,
		TaxType:        taxType,
		IsActive:       true,
		TrackInventory: true,
	}
}

func TestCreateSaleCash(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:              []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod:      models.PaymentMethodCash,
		PaidAmountOriginal: decimal.NewFromInt(120000),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", sale.InvoiceNumber)
	assert.Equal(t, models.SaleStatusCompleted, sale.Status)
	assert.Equal(t, int64(100000), sale.Subtotal)
	assert.Equal(t, int64(10000), sale.TaxAmount)
	assert.Equal(t, int64(110000), sale.TotalAmount)
	assert.Equal(t, int64(120000), sale.PaidAmount)
	assert.Equal(t, int64(10000), sale.ChangeAmount)
	assert.Equal(t, models.CurrencyPYG, sale.CurrencyPaid)

	// Header totals equal the line aggregates.
	require.Len(t, sale.Items, 1)
	assert.Equal(t, sale.TotalAmount, sale.Items[0].Subtotal)
	assert.Equal(t, sale.Subtotal, sale.Items[0].BaseAmount())

	// Stock went down through a signed ledger movement.
	product, _ := f.productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(8), product.CurrentStock)
	require.Len(t, f.movementRepo.movements, 1)
	movement := f.movementRepo.movements[0]
	assert.Equal(t, models.MovementTypeSale, movement.MovementType)
	assert.Equal(t, int64(-2), movement.Quantity)
	assert.Equal(t, int64(10), movement.PreviousStock)
	assert.Equal(t, int64(8), movement.NewStock)
	assert.Equal(t, "INV-000001", movement.Reference)

	assert.Equal(t, 1, f.txManager.commits)
}

func TestCreateSaleInvoiceSequence(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "ITEM", 1000, 100, models.TaxTypeExempt),
	}, nil)
	f.saleRepo.lastInvoice = "INV-000041"

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-000042", sale.InvoiceNumber)
}

func TestCreateSaleInvoiceFallback(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "ITEM", 1000, 100, models.TaxTypeExempt),
	}, nil)
	f.saleRepo.lastInvoice = "LEGACY-0009"

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sale.InvoiceNumber, "INV-"))
	assert.NotEqual(t, "INV-000010", sale.InvoiceNumber)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "SCARCE", 5000, 3, models.TaxTypeStandard),
	}, nil)

	_, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 4}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing committed, nothing moved.
	product, _ := f.productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(3), product.CurrentStock)
	assert.Empty(t, f.movementRepo.movements)
	assert.Equal(t, 0, f.txManager.commits)
}

func TestCreateSaleForeignCurrency(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:              []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod:      models.PaymentMethodCash,
		CurrencyPaid:       models.CurrencyUSD,
		PaidAmountOriginal: decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	// 20 USD at the default 7300 rate covers the 110000 PYG total.
	assert.Equal(t, int64(146000), sale.PaidAmount)
	assert.Equal(t, int64(36000), sale.ChangeAmount)
	assert.Equal(t, models.CurrencyUSD, sale.CurrencyPaid)
	assert.True(t, sale.PaidAmountOriginal.Equal(decimal.NewFromInt(20)))
	assert.True(t, sale.ExchangeRateUSD.Equal(DefaultExchangeRateUSD))
}

func TestCreateSaleCashUnderpaymentSettles(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:              []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod:      models.PaymentMethodCash,
		PaidAmountOriginal: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	// A short tender settles with zero change; the shortfall shows up as the
	// sale's outstanding balance.
	assert.Equal(t, models.SaleStatusCompleted, sale.Status)
	assert.Equal(t, int64(110000), sale.TotalAmount)
	assert.Equal(t, int64(50000), sale.PaidAmount)
	assert.Equal(t, int64(0), sale.ChangeAmount)
	assert.Equal(t, int64(60000), sale.OutstandingBalance())
	assert.False(t, sale.IsPaid())
}

func TestCreateSaleNegativeTenderRejected(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	_, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:              []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod:      models.PaymentMethodCash,
		PaidAmountOriginal: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateSaleCredit(t *testing.T) {
	customer := &models.Customer{ID: 7, TenantID: testTenant, Name: "Doña Rosa", IsActive: true}
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, []*models.Customer{customer})

	customerID := int64(7)
	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		CustomerID:    &customerID,
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod: models.PaymentMethodCredit,
		Installments:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SaleStatusPending, sale.Status)
	assert.Equal(t, int64(0), sale.PaidAmount)

	// The receivable opened with the full amount and the balance followed.
	require.Len(t, f.customerRepo.entries, 1)
	entry := f.customerRepo.entries[0]
	assert.Equal(t, models.AccountEntrySale, entry.TransactionType)
	assert.Equal(t, sale.TotalAmount, entry.Amount)
	assert.Equal(t, 3, entry.TotalInstallments)
	require.NotNil(t, entry.DueDate)
	require.NotNil(t, entry.SaleID)
	assert.Equal(t, sale.ID, *entry.SaleID)

	assert.Equal(t, sale.TotalAmount, customer.CurrentBalance)
}

func TestCreateSaleCreditRequiresCustomer(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	_, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCredit,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateSaleSkipsUntrackedStock(t *testing.T) {
	service := trackedProduct(1, "DELIVERY", 10000, 0, models.TaxTypeStandard)
	service.TrackInventory = false
	f := newSaleServiceFixture([]*models.Product{service}, nil)

	_, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Empty(t, f.movementRepo.movements)
}

func TestCancelSaleRestoresStock(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelSale(testTenant, sale.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCancelled, cancelled.Status)

	product, _ := f.productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(10), product.CurrentStock)

	// One sale movement plus one compensating adjustment; history untouched.
	require.Len(t, f.movementRepo.movements, 2)
	compensation := f.movementRepo.movements[1]
	assert.Equal(t, models.MovementTypeAdjustment, compensation.MovementType)
	assert.Equal(t, int64(2), compensation.Quantity)
	assert.Equal(t, "CANCEL-"+sale.InvoiceNumber, compensation.Reference)
}

func TestCancelCreditSaleCompensatesLedger(t *testing.T) {
	customer := &models.Customer{ID: 7, TenantID: testTenant, Name: "Doña Rosa", IsActive: true}
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, []*models.Customer{customer})

	customerID := int64(7)
	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		CustomerID:    &customerID,
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 2}},
		PaymentMethod: models.PaymentMethodCredit,
	})
	require.NoError(t, err)
	require.Equal(t, sale.TotalAmount, customer.CurrentBalance)

	_, err = f.service.CancelSale(testTenant, sale.ID, nil)
	require.NoError(t, err)

	// The ledger gained a compensating adjustment and the balance is flat.
	require.Len(t, f.customerRepo.entries, 2)
	adjustment := f.customerRepo.entries[1]
	assert.Equal(t, models.AccountEntryAdjustment, adjustment.TransactionType)
	assert.Equal(t, -sale.TotalAmount, adjustment.Amount)
	assert.Equal(t, int64(0), customer.CurrentBalance)
}

func TestCancelSaleTwiceConflicts(t *testing.T) {
	f := newSaleServiceFixture([]*models.Product{
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
	}, nil)

	sale, err := f.service.CreateSale(testTenant, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = f.service.CancelSale(testTenant, sale.ID, nil)
	require.NoError(t, err)

	_, err = f.service.CancelSale(testTenant, sale.ID, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelUnknownSale(t *testing.T) {
	f := newSaleServiceFixture(nil, nil)
	_, err := f.service.CancelSale(testTenant, "no-such-sale", nil)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

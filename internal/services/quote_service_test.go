package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyme_pos_backend/internal/models"
)

type quoteServiceFixture struct {
	service     QuoteService
	quoteRepo   *fakeQuoteRepo
	productRepo *fakeProductRepo
	saleRepo    *fakeSaleRepo
	movements   *fakeMovementRepo
}

func newQuoteServiceFixture(products ...*models.Product) *quoteServiceFixture {
	f := &quoteServiceFixture{
		quoteRepo:   newFakeQuoteRepo(),
		productRepo: newFakeProductRepo(products...),
		saleRepo:    newFakeSaleRepo(),
		movements:   &fakeMovementRepo{},
	}
	saleService := NewSaleService(f.saleRepo, f.productRepo, f.movements, newFakeCustomerRepo(), &fakeTxManager{})
	f.service = NewQuoteService(f.quoteRepo, f.productRepo, saleService, &fakeTxManager{})
	return f
}

func TestCreateQuote(t *testing.T) {
	f := newQuoteServiceFixture(
		trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard),
		trackedProduct(2, "YERBA-1KG", 25000, 10, models.TaxTypeReduced),
	)

	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		ValidDays: 15,
		Items: []CreateQuoteItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "QUO-000001", quote.QuoteNumber)
	assert.Equal(t, models.QuoteStatusDraft, quote.Status)
	require.NotNil(t, quote.ValidUntil)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 15), *quote.ValidUntil, time.Minute)

	// 110000 inclusive at 10% + 25000 inclusive at 5%.
	assert.Equal(t, int64(135000), quote.TotalAmount)
	assert.Equal(t, int64(100000+23810), quote.Subtotal)
	assert.Equal(t, int64(10000+1190), quote.TaxAmount)
	require.Len(t, quote.Items, 2)

	// Quoting reserves nothing.
	product, _ := f.productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(10), product.CurrentStock)
	assert.Empty(t, f.movements.movements)
}

func TestQuoteNumberSequence(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "ITEM", 1000, 10, models.TaxTypeExempt))
	f.quoteRepo.lastQuote = "QUO-000007"

	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "QUO-000008", quote.QuoteNumber)
}

func TestQuoteLifecycle(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "ITEM", 1000, 10, models.TaxTypeExempt))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// Approving a draft skips a step and is rejected.
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	assert.ErrorIs(t, err, ErrConflict)

	sent, err := f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusSent, sent.Status)

	approved, err := f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusApproved, approved.Status)

	// A decided quote cannot be re-sent or rejected.
	_, err = f.service.SendQuote(testTenant, quote.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.service.RejectQuote(testTenant, quote.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConvertToOrder(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)

	order, err := f.service.ConvertToOrder(testTenant, quote.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "ORD-000001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.NotNil(t, order.QuoteID)
	assert.Equal(t, quote.ID, *order.QuoteID)
	assert.Equal(t, quote.TotalAmount, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(3), order.Items[0].Quantity)

	converted, _ := f.service.GetQuoteByID(testTenant, quote.ID)
	assert.Equal(t, models.QuoteStatusConverted, converted.Status)

	// The same quote cannot be converted twice.
	_, err = f.service.ConvertToOrder(testTenant, quote.ID, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConvertExpiredQuoteRejected(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "ITEM", 1000, 10, models.TaxTypeExempt))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	f.quoteRepo.quotes[quote.ID].ValidUntil = &yesterday

	_, err = f.service.ConvertToOrder(testTenant, quote.ID, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGenerateSaleFromOrder(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)
	order, err := f.service.ConvertToOrder(testTenant, quote.ID, nil)
	require.NoError(t, err)

	sale, err := f.service.GenerateSale(testTenant, order.ID, GenerateSaleRequest{
		PaymentMethod:      models.PaymentMethodCash,
		PaidAmountOriginal: decimal.NewFromInt(110000),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", sale.InvoiceNumber)
	assert.Equal(t, quote.TotalAmount, sale.TotalAmount)
	assert.Equal(t, models.SaleStatusCompleted, sale.Status)

	// Stock moves only now, at sale time.
	product, _ := f.productRepo.GetProductByID(testTenant, 1)
	assert.Equal(t, int64(8), product.CurrentStock)

	completed, _ := f.service.GetOrderByID(testTenant, order.ID)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
	require.NotNil(t, completed.SaleID)
	assert.Equal(t, sale.ID, *completed.SaleID)

	// A completed order cannot be sold again.
	_, err = f.service.GenerateSale(testTenant, order.ID, GenerateSaleRequest{
		PaymentMethod: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGenerateSaleFailureLeavesOrderOpen(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "COLA-2L", 55000, 10, models.TaxTypeStandard))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)
	order, err := f.service.ConvertToOrder(testTenant, quote.ID, nil)
	require.NoError(t, err)

	// Stock ran out between conversion and settlement.
	f.productRepo.products[1].CurrentStock = 1

	_, err = f.service.GenerateSale(testTenant, order.ID, GenerateSaleRequest{
		PaymentMethod: models.PaymentMethodCash,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failed settlement left no sale behind and the order is still open
	// for a retry once stock is back.
	assert.Empty(t, f.saleRepo.sales)
	assert.Empty(t, f.movements.movements)
	open, _ := f.service.GetOrderByID(testTenant, order.ID)
	assert.Equal(t, models.OrderStatusPending, open.Status)
	assert.Nil(t, open.SaleID)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newQuoteServiceFixture(trackedProduct(1, "ITEM", 1000, 10, models.TaxTypeExempt))
	quote, err := f.service.CreateQuote(testTenant, CreateQuoteRequest{
		Items: []CreateQuoteItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(testTenant, quote.ID)
	require.NoError(t, err)
	_, err = f.service.ApproveQuote(testTenant, quote.ID)
	require.NoError(t, err)
	order, err := f.service.ConvertToOrder(testTenant, quote.ID, nil)
	require.NoError(t, err)

	preparing, err := f.service.UpdateOrderStatus(testTenant, order.ID, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, preparing.Status)

	// Completion goes through GenerateSale, never a direct status write.
	_, err = f.service.UpdateOrderStatus(testTenant, order.ID, models.OrderStatusCompleted)
	assert.ErrorIs(t, err, ErrValidation)

	cancelled, err := f.service.UpdateOrderStatus(testTenant, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	_, err = f.service.UpdateOrderStatus(testTenant, order.ID, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrConflict)
}

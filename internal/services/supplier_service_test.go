package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyme_pos_backend/internal/models"
)

const testSupplierID = "3b9e5d10-0000-0000-0000-0000000000aa"

func newSupplierServiceFixture(suppliers ...*models.Supplier) (SupplierService, *fakeSupplierRepo) {
	repo := newFakeSupplierRepo(suppliers...)
	return NewSupplierService(repo, &fakeTxManager{}), repo
}

func testSupplier(termsDays int) *models.Supplier {
	return &models.Supplier{
		ID:               testSupplierID,
		TenantID:         testTenant,
		Name:             "Distribuidora Guaraní",
		PaymentTermsDays: termsDays,
		IsActive:         true,
	}
}

func TestCreatePurchaseSingleInstallment(t *testing.T) {
	service, repo := newSupplierServiceFixture(testSupplier(15))

	entries, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{
		Amount:        900000,
		InvoiceNumber: "FAC-001-0000077",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, models.AccountEntryPurchase, entry.TransactionType)
	assert.Equal(t, int64(900000), entry.Amount)
	assert.Equal(t, 1, entry.InstallmentNumber)
	assert.Equal(t, 1, entry.TotalInstallments)
	require.NotNil(t, entry.DueDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 15), *entry.DueDate, time.Minute)

	balance, _ := repo.GetBalance(testTenant, testSupplierID)
	assert.Equal(t, int64(900000), balance)
}

func TestCreatePurchaseExplicitDueDate(t *testing.T) {
	service, _ := newSupplierServiceFixture(testSupplier(15))

	// An invoice due date overrides the supplier's payment terms.
	due := time.Now().AddDate(0, 2, 0).Truncate(time.Second)
	entries, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{
		Amount:  500000,
		DueDate: &due,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].DueDate)
	assert.True(t, entries[0].DueDate.Equal(due))
}

func TestCreatePurchaseExplicitDueDateStaggersInstallments(t *testing.T) {
	service, _ := newSupplierServiceFixture(testSupplier(15))

	due := time.Now().AddDate(0, 0, 45).Truncate(time.Second)
	entries, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{
		Amount:       600000,
		Installments: 2,
		DueDate:      &due,
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// The explicit date anchors the first installment; the rest stagger from it.
	require.NotNil(t, entries[1].DueDate)
	assert.True(t, entries[1].DueDate.Equal(due))
	require.NotNil(t, entries[2].DueDate)
	assert.True(t, entries[2].DueDate.Equal(due.AddDate(0, 0, 30)))
}

func TestCreatePurchaseInstallmentPlan(t *testing.T) {
	service, repo := newSupplierServiceFixture(testSupplier(30))

	entries, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{
		Amount:       1000000,
		Installments: 3,
	})
	require.NoError(t, err)
	require.Len(t, entries, 4) // header + 3 installments

	parent := entries[0]
	assert.True(t, parent.IsInstallmentParent())
	assert.Equal(t, int64(1000000), parent.Amount)
	assert.Equal(t, 3, parent.TotalInstallments)

	// Children carry the debt, sum to the parent, remainder on the last.
	var sum int64
	for i, child := range entries[1:] {
		assert.Equal(t, i+1, child.InstallmentNumber)
		require.NotNil(t, child.ParentTransactionID)
		assert.Equal(t, parent.ID, *child.ParentTransactionID)
		require.NotNil(t, child.DueDate)
		expectedDue := time.Now().AddDate(0, 0, 30+30*i)
		assert.WithinDuration(t, expectedDue, *child.DueDate, time.Minute)
		sum += child.Amount
	}
	assert.Equal(t, int64(333333), entries[1].Amount)
	assert.Equal(t, int64(333333), entries[2].Amount)
	assert.Equal(t, int64(333334), entries[3].Amount)
	assert.Equal(t, parent.Amount, sum)

	// The header is excluded from the balance so the debt is not doubled.
	balance, _ := repo.GetBalance(testTenant, testSupplierID)
	assert.Equal(t, int64(1000000), balance)
}

func TestCreatePaymentExactMatchSettlesPurchase(t *testing.T) {
	service, repo := newSupplierServiceFixture(testSupplier(30))
	entries, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{Amount: 400000})
	require.NoError(t, err)
	purchaseID := entries[0].ID

	payment, err := service.CreatePayment(testTenant, testSupplierID, CreateSupplierPaymentRequest{
		Amount:            400000,
		PaymentMethod:     models.PaymentMethodTransfer,
		RelatedPurchaseID: &purchaseID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-400000), payment.Amount)

	settled, _ := repo.GetAccountEntryByID(testTenant, purchaseID)
	assert.NotNil(t, settled.PaidDate)

	balance, _ := repo.GetBalance(testTenant, testSupplierID)
	assert.Equal(t, int64(0), balance)
}

func TestCreatePaymentPartialLeavesPurchaseOpen(t *testing.T) {
	service, repo := newSupplierServiceFixture(testSupplier(30))
	entries, _ := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{Amount: 400000})
	purchaseID := entries[0].ID

	_, err := service.CreatePayment(testTenant, testSupplierID, CreateSupplierPaymentRequest{
		Amount:            150000,
		RelatedPurchaseID: &purchaseID,
	})
	require.NoError(t, err)

	open, _ := repo.GetAccountEntryByID(testTenant, purchaseID)
	assert.Nil(t, open.PaidDate)
	balance, _ := repo.GetBalance(testTenant, testSupplierID)
	assert.Equal(t, int64(250000), balance)
}

func TestCreatePaymentOverpayRejected(t *testing.T) {
	service, _ := newSupplierServiceFixture(testSupplier(30))
	_, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{Amount: 100000})
	require.NoError(t, err)

	_, err = service.CreatePayment(testTenant, testSupplierID, CreateSupplierPaymentRequest{Amount: 100001})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetUnpaidPurchasesSkipsHeaders(t *testing.T) {
	service, _ := newSupplierServiceFixture(testSupplier(30))
	_, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{
		Amount:       600000,
		Installments: 2,
	})
	require.NoError(t, err)

	unpaid, err := service.GetUnpaidPurchases(testTenant, testSupplierID)
	require.NoError(t, err)
	require.Len(t, unpaid, 2)
	for _, e := range unpaid {
		assert.Greater(t, e.InstallmentNumber, 0)
	}
}

func TestDeactivateSupplierWithBalanceRejected(t *testing.T) {
	service, _ := newSupplierServiceFixture(testSupplier(30))
	_, err := service.CreatePurchase(testTenant, testSupplierID, CreateSupplierPurchaseRequest{Amount: 5000})
	require.NoError(t, err)

	err = service.DeactivateSupplier(testTenant, testSupplierID)
	assert.ErrorIs(t, err, ErrConflict)
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

func newCustomerServiceFixture(customers ...*models.Customer) (CustomerService, *fakeCustomerRepo) {
	repo := newFakeCustomerRepo(customers...)
	return NewCustomerService(repo, &fakeTxManager{}), repo
}

func debtor(id int64, name string, balance int64) *models.Customer {
	return &models.Customer{
		ID:             id,
		TenantID:       testTenant,
		Name:           name,
		CustomerType:   "retail",
		CreditLimit:    1000000,
		CurrentBalance: balance,
		IsActive:       true,
	}
}

func TestRegisterPayment(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 150000))

	payment, err := service.RegisterPayment(testTenant, 7, RegisterCustomerPaymentRequest{
		Amount:        60000,
		PaymentMethod: models.PaymentMethodCash,
		Reference:     "REC-0001",
	})
	require.NoError(t, err)

	// Payments are stored negative so the entry sum is the balance.
	assert.Equal(t, models.AccountEntryPayment, payment.TransactionType)
	assert.Equal(t, int64(-60000), payment.Amount)

	customer, _ := repo.GetCustomerByID(testTenant, 7)
	assert.Equal(t, int64(90000), customer.CurrentBalance)
}

func TestRegisterPaymentOverpayRejected(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 50000))

	_, err := service.RegisterPayment(testTenant, 7, RegisterCustomerPaymentRequest{Amount: 50001})
	require.ErrorIs(t, err, ErrValidation)

	customer, _ := repo.GetCustomerByID(testTenant, 7)
	assert.Equal(t, int64(50000), customer.CurrentBalance)
	assert.Empty(t, repo.entries)
}

func TestRegisterPaymentSettlesEntryExactly(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 80000))
	due := time.Now().AddDate(0, 0, 30)
	entryID, err := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          80000,
		TransactionDate: time.Now(),
		DueDate:         &due,
	})
	require.NoError(t, err)

	_, err = service.RegisterPayment(testTenant, 7, RegisterCustomerPaymentRequest{
		Amount:  80000,
		EntryID: &entryID,
	})
	require.NoError(t, err)

	entry, _ := repo.GetAccountEntryByID(testTenant, entryID)
	require.NotNil(t, entry.PaidDate)

	customer, _ := repo.GetCustomerByID(testTenant, 7)
	assert.Equal(t, int64(0), customer.CurrentBalance)
}

func TestRegisterPaymentOnPaidEntryConflicts(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 100000))
	paid := time.Now()
	entryID, _ := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          50000,
		TransactionDate: time.Now(),
		PaidDate:        &paid,
	})

	_, err := service.RegisterPayment(testTenant, 7, RegisterCustomerPaymentRequest{
		Amount:  50000,
		EntryID: &entryID,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterPaymentPartialLeavesEntryOpen(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 80000))
	entryID, _ := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          80000,
		TransactionDate: time.Now(),
	})

	_, err := service.RegisterPayment(testTenant, 7, RegisterCustomerPaymentRequest{
		Amount:  30000,
		EntryID: &entryID,
	})
	require.NoError(t, err)

	entry, _ := repo.GetAccountEntryByID(testTenant, entryID)
	assert.Nil(t, entry.PaidDate)
	customer, _ := repo.GetCustomerByID(testTenant, 7)
	assert.Equal(t, int64(50000), customer.CurrentBalance)
}

func TestUpdatePromisedDate(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 80000))
	entryID, _ := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          80000,
		TransactionDate: time.Now(),
	})

	promised := time.Now().AddDate(0, 0, 15)
	require.NoError(t, service.UpdatePromisedDate(testTenant, entryID, promised))

	entry, _ := repo.GetAccountEntryByID(testTenant, entryID)
	require.NotNil(t, entry.PromisedDate)
	assert.True(t, entry.PromisedDate.Equal(promised))
}

func TestUpdatePromisedDateOnPaymentRejected(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 0))
	entryID, _ := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntryPayment,
		Amount:          -10000,
		TransactionDate: time.Now(),
	})

	err := service.UpdatePromisedDate(testTenant, entryID, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOverdueEntriesUsesPromisedDate(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 100000))
	now := time.Now()

	// Due yesterday but promised for next week: not overdue yet.
	dueYesterday := now.AddDate(0, 0, -1)
	promisedNextWeek := now.AddDate(0, 0, 7)
	_, _ = repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          40000,
		TransactionDate: now.AddDate(0, 0, -31),
		DueDate:         &dueYesterday,
		PromisedDate:    &promisedNextWeek,
	})
	// Promised date already blown: overdue.
	promisedYesterday := now.AddDate(0, 0, -1)
	overdueID, _ := repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          60000,
		TransactionDate: now.AddDate(0, 0, -45),
		DueDate:         &dueYesterday,
		PromisedDate:    &promisedYesterday,
	})

	overdue, err := service.GetOverdueEntries(testTenant)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, overdueID, overdue[0].ID)
}

func TestDeactivateCustomerWithDebtRejected(t *testing.T) {
	service, _ := newCustomerServiceFixture(debtor(7, "Doña Carmen", 5000))
	err := service.DeactivateCustomer(testTenant, 7)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetAccountStatement(t *testing.T) {
	service, repo := newCustomerServiceFixture(debtor(7, "Doña Carmen", 120000))
	_, _ = repo.CreateAccountEntry(nil, testTenant, &models.CustomerAccountEntry{
		CustomerID:      7,
		TransactionType: models.AccountEntrySale,
		Amount:          120000,
		TransactionDate: time.Now(),
	})

	statement, err := service.GetAccountStatement(testTenant, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), statement.Balance)
	assert.Len(t, statement.Entries, 1)

	_, err = service.GetAccountStatement(testTenant, 99)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

package services

import (
	"fmt"
	"time"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// RegisterCustomerPaymentRequest records money received against a customer's
// account. Amount is the positive amount paid; the ledger stores it negated.
type RegisterCustomerPaymentRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method"`
	EntryID       *int64 `json:"entry_id"`
	Reference     string `json:"reference"`
	Notes         string `json:"notes"`
	CreatedBy     *int64 `json:"-"`
}

// CustomerAccountStatement is the account view: the customer, their entries
// and the running balance (always the signed sum of the entries).
type CustomerAccountStatement struct {
	Customer *models.Customer              `json:"customer"`
	Entries  []models.CustomerAccountEntry `json:"entries"`
	Balance  int64                         `json:"balance"`
}

// CustomerService manages customers and their credit accounts.
type CustomerService interface {
	CreateCustomer(tenantID string, customer *models.Customer) (*models.Customer, error)
	GetCustomerByID(tenantID string, id int64) (*models.Customer, error)
	GetCustomers(tenantID string, search *string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(tenantID string, id int64, customer *models.Customer) (*models.Customer, error)
	DeactivateCustomer(tenantID string, id int64) error

	GetAccountStatement(tenantID string, customerID int64) (*CustomerAccountStatement, error)
	RegisterPayment(tenantID string, customerID int64, req RegisterCustomerPaymentRequest) (*models.CustomerAccountEntry, error)
	UpdatePromisedDate(tenantID string, entryID int64, promised time.Time) error
	GetOverdueEntries(tenantID string) ([]models.CustomerAccountEntry, error)
	GetCustomersWithDebt(tenantID string) ([]models.Customer, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	txManager    repositories.TxManager
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(cr repositories.CustomerRepository, tm repositories.TxManager) CustomerService {
	return &customerService{customerRepo: cr, txManager: tm}
}

func (s *customerService) CreateCustomer(tenantID string, customer *models.Customer) (*models.Customer, error) {
	if customer.Name == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if customer.CustomerType == "" {
		customer.CustomerType = "retail"
	}
	if customer.CreditLimit < 0 {
		return nil, fmt.Errorf("%w: credit limit cannot be negative", ErrValidation)
	}
	if _, err := s.customerRepo.CreateCustomer(tenantID, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetCustomerByID(tenantID string, id int64) (*models.Customer, error) {
	return s.customerRepo.GetCustomerByID(tenantID, id)
}

func (s *customerService) GetCustomers(tenantID string, search *string, page, pageSize int) ([]models.Customer, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.customerRepo.GetCustomers(tenantID, search, page, pageSize)
}

func (s *customerService) UpdateCustomer(tenantID string, id int64, customer *models.Customer) (*models.Customer, error) {
	existing, err := s.customerRepo.GetCustomerByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	customer.ID = existing.ID
	customer.CurrentBalance = existing.CurrentBalance
	if customer.CustomerType == "" {
		customer.CustomerType = existing.CustomerType
	}
	if err := s.customerRepo.UpdateCustomer(tenantID, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) DeactivateCustomer(tenantID string, id int64) error {
	customer, err := s.customerRepo.GetCustomerByID(tenantID, id)
	if err != nil {
		return err
	}
	if customer.HasDebt() {
		return fmt.Errorf("%w: customer %s still owes %d", ErrConflict, customer.Name, customer.CurrentBalance)
	}
	return s.customerRepo.DeactivateCustomer(tenantID, id)
}

func (s *customerService) GetAccountStatement(tenantID string, customerID int64) (*CustomerAccountStatement, error) {
	customer, err := s.customerRepo.GetCustomerByID(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.customerRepo.GetAccountEntries(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return &CustomerAccountStatement{
		Customer: customer,
		Entries:  entries,
		Balance:  customer.CurrentBalance,
	}, nil
}

// RegisterPayment appends a negative payment entry and decrements the
// balance in one transaction. When the payment targets a specific debt entry
// and settles it exactly, that entry is marked paid.
func (s *customerService) RegisterPayment(tenantID string, customerID int64, req RegisterCustomerPaymentRequest) (*models.CustomerAccountEntry, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	customer, err := s.customerRepo.GetCustomerByID(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if req.Amount > customer.CurrentBalance {
		return nil, fmt.Errorf("%w: payment %d exceeds balance %d", ErrValidation, req.Amount, customer.CurrentBalance)
	}

	var payment *models.CustomerAccountEntry
	err = s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		now := time.Now()
		payment = &models.CustomerAccountEntry{
			CustomerID:      customerID,
			TransactionType: models.AccountEntryPayment,
			Amount:          -req.Amount,
			TransactionDate: now,
			PaymentMethod:   req.PaymentMethod,
			Reference:       req.Reference,
			Notes:           req.Notes,
			CreatedBy:       req.CreatedBy,
		}
		if _, err := s.customerRepo.CreateAccountEntry(tx, tenantID, payment); err != nil {
			return err
		}
		if err := s.customerRepo.AdjustBalance(tx, tenantID, customerID, -req.Amount); err != nil {
			return err
		}

		if req.EntryID != nil {
			target, err := s.customerRepo.GetAccountEntryByID(tenantID, *req.EntryID)
			if err != nil {
				return err
			}
			if target.CustomerID != customerID {
				return fmt.Errorf("%w: entry %d belongs to another customer", ErrValidation, *req.EntryID)
			}
			if target.PaidDate != nil {
				return fmt.Errorf("%w: entry %d is already paid", ErrConflict, *req.EntryID)
			}
			if target.Amount == req.Amount {
				if err := s.customerRepo.MarkEntryPaid(tx, tenantID, *req.EntryID, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *customerService) UpdatePromisedDate(tenantID string, entryID int64, promised time.Time) error {
	entry, err := s.customerRepo.GetAccountEntryByID(tenantID, entryID)
	if err != nil {
		return err
	}
	if entry.TransactionType != models.AccountEntrySale {
		return fmt.Errorf("%w: only debt entries can carry a promised date", ErrValidation)
	}
	if entry.PaidDate != nil {
		return fmt.Errorf("%w: entry %d is already paid", ErrConflict, entryID)
	}
	return s.customerRepo.SetPromisedDate(tenantID, entryID, promised)
}

func (s *customerService) GetOverdueEntries(tenantID string) ([]models.CustomerAccountEntry, error) {
	return s.customerRepo.GetOverdueEntries(tenantID, time.Now())
}

func (s *customerService) GetCustomersWithDebt(tenantID string) ([]models.Customer, error) {
	return s.customerRepo.GetCustomersWithDebt(tenantID)
}

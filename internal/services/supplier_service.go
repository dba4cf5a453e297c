package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// CreateSupplierPurchaseRequest records a purchase on account. With more than
// one installment the ledger gets a parent header row plus one child per
// installment, due dates staggered a month apart. DueDate sets the first due
// date explicitly; when absent it is derived from the supplier's payment
// terms.
type CreateSupplierPurchaseRequest struct {
	Amount        int64      `json:"amount" binding:"required,gt=0"`
	Installments  int        `json:"installments"`
	DueDate       *time.Time `json:"due_date"`
	InvoiceNumber string     `json:"invoice_number"`
	Notes         string     `json:"notes"`
	CreatedBy     *int64     `json:"-"`
}

// CreateSupplierPaymentRequest records money paid to a supplier. When it
// targets a specific purchase and matches its amount exactly, the purchase is
// marked paid.
type CreateSupplierPaymentRequest struct {
	Amount            int64   `json:"amount" binding:"required,gt=0"`
	PaymentMethod     string  `json:"payment_method"`
	RelatedPurchaseID *string `json:"related_purchase_id"`
	Reference         string  `json:"reference"`
	Notes             string  `json:"notes"`
	CreatedBy         *int64  `json:"-"`
}

// SupplierAccountStatement is the payable view for one supplier.
type SupplierAccountStatement struct {
	Supplier *models.Supplier              `json:"supplier"`
	Entries  []models.SupplierAccountEntry `json:"entries"`
	Balance  int64                         `json:"balance"`
}

// SupplierService manages suppliers and accounts payable.
type SupplierService interface {
	CreateSupplier(tenantID string, supplier *models.Supplier) (*models.Supplier, error)
	GetSupplierByID(tenantID string, id string) (*models.Supplier, error)
	GetSuppliers(tenantID string, search *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(tenantID string, id string, supplier *models.Supplier) (*models.Supplier, error)
	DeactivateSupplier(tenantID string, id string) error

	CreatePurchase(tenantID string, supplierID string, req CreateSupplierPurchaseRequest) ([]models.SupplierAccountEntry, error)
	CreatePayment(tenantID string, supplierID string, req CreateSupplierPaymentRequest) (*models.SupplierAccountEntry, error)
	GetAccountStatement(tenantID string, supplierID string) (*SupplierAccountStatement, error)
	GetUnpaidPurchases(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error)
	GetPayableSummary(tenantID string) (*models.PayableSummary, error)
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	txManager    repositories.TxManager
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(sr repositories.SupplierRepository, tm repositories.TxManager) SupplierService {
	return &supplierService{supplierRepo: sr, txManager: tm}
}

func (s *supplierService) CreateSupplier(tenantID string, supplier *models.Supplier) (*models.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("%w: supplier name is required", ErrValidation)
	}
	if supplier.PaymentTermsDays <= 0 {
		supplier.PaymentTermsDays = defaultCreditTermDays
	}
	supplier.ID = uuid.NewString()
	if err := s.supplierRepo.CreateSupplier(tenantID, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) GetSupplierByID(tenantID string, id string) (*models.Supplier, error) {
	return s.supplierRepo.GetSupplierByID(tenantID, id)
}

func (s *supplierService) GetSuppliers(tenantID string, search *string, page, pageSize int) ([]models.Supplier, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.supplierRepo.GetSuppliers(tenantID, search, page, pageSize)
}

func (s *supplierService) UpdateSupplier(tenantID string, id string, supplier *models.Supplier) (*models.Supplier, error) {
	existing, err := s.supplierRepo.GetSupplierByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	supplier.ID = existing.ID
	if supplier.PaymentTermsDays <= 0 {
		supplier.PaymentTermsDays = existing.PaymentTermsDays
	}
	if err := s.supplierRepo.UpdateSupplier(tenantID, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) DeactivateSupplier(tenantID string, id string) error {
	balance, err := s.supplierRepo.GetBalance(tenantID, id)
	if err != nil {
		return err
	}
	if balance > 0 {
		return fmt.Errorf("%w: supplier still has %d outstanding", ErrConflict, balance)
	}
	return s.supplierRepo.DeactivateSupplier(tenantID, id)
}

// CreatePurchase posts the payable side of a goods-in. A single-installment
// purchase is one row; an installment plan is a zero-numbered parent plus N
// children that carry the actual debt. The children always sum to the parent,
// with the rounding remainder on the last one.
func (s *supplierService) CreatePurchase(tenantID string, supplierID string, req CreateSupplierPurchaseRequest) ([]models.SupplierAccountEntry, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: purchase amount must be positive", ErrValidation)
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}
	supplier, err := s.supplierRepo.GetSupplierByID(tenantID, supplierID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	firstDue := now.AddDate(0, 0, supplier.PaymentTermsDays)
	if req.DueDate != nil {
		firstDue = *req.DueDate
	}

	var entries []models.SupplierAccountEntry
	err = s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		if installments == 1 {
			entry := &models.SupplierAccountEntry{
				ID:                uuid.NewString(),
				SupplierID:        supplierID,
				TransactionType:   models.AccountEntryPurchase,
				Amount:            req.Amount,
				TransactionDate:   now,
				DueDate:           &firstDue,
				TotalInstallments: 1,
				InstallmentNumber: 1,
				InvoiceNumber:     req.InvoiceNumber,
				Notes:             req.Notes,
				CreatedBy:         req.CreatedBy,
			}
			if err := s.supplierRepo.CreateAccountEntry(tx, tenantID, entry); err != nil {
				return err
			}
			entries = append(entries, *entry)
			return nil
		}

		parent := &models.SupplierAccountEntry{
			ID:                uuid.NewString(),
			SupplierID:        supplierID,
			TransactionType:   models.AccountEntryPurchase,
			Amount:            req.Amount,
			TransactionDate:   now,
			DueDate:           &firstDue,
			TotalInstallments: installments,
			InstallmentNumber: 0,
			InvoiceNumber:     req.InvoiceNumber,
			Notes:             req.Notes,
			CreatedBy:         req.CreatedBy,
		}
		if err := s.supplierRepo.CreateAccountEntry(tx, tenantID, parent); err != nil {
			return err
		}
		entries = append(entries, *parent)

		per := req.Amount / int64(installments)
		for i := 1; i <= installments; i++ {
			amount := per
			if i == installments {
				amount = req.Amount - per*int64(installments-1)
			}
			due := firstDue.AddDate(0, 0, 30*(i-1))
			child := &models.SupplierAccountEntry{
				ID:                  uuid.NewString(),
				SupplierID:          supplierID,
				TransactionType:     models.AccountEntryPurchase,
				Amount:              amount,
				TransactionDate:     now,
				DueDate:             &due,
				TotalInstallments:   installments,
				InstallmentNumber:   i,
				ParentTransactionID: &parent.ID,
				InvoiceNumber:       req.InvoiceNumber,
				Notes:               fmt.Sprintf("installment %d/%d", i, installments),
				CreatedBy:           req.CreatedBy,
			}
			if err := s.supplierRepo.CreateAccountEntry(tx, tenantID, child); err != nil {
				return err
			}
			entries = append(entries, *child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreatePayment appends a negative payment entry. Overpaying the current
// balance is rejected; partial payments never mark a purchase paid.
func (s *supplierService) CreatePayment(tenantID string, supplierID string, req CreateSupplierPaymentRequest) (*models.SupplierAccountEntry, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if _, err := s.supplierRepo.GetSupplierByID(tenantID, supplierID); err != nil {
		return nil, err
	}
	balance, err := s.supplierRepo.GetBalance(tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	if req.Amount > balance {
		return nil, fmt.Errorf("%w: payment %d exceeds balance %d", ErrValidation, req.Amount, balance)
	}

	var payment *models.SupplierAccountEntry
	err = s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		now := time.Now()
		payment = &models.SupplierAccountEntry{
			ID:                uuid.NewString(),
			SupplierID:        supplierID,
			TransactionType:   models.AccountEntryPayment,
			Amount:            -req.Amount,
			TransactionDate:   now,
			TotalInstallments: 1,
			InstallmentNumber: 1,
			RelatedPurchaseID: req.RelatedPurchaseID,
			PaymentMethod:     req.PaymentMethod,
			Reference:         req.Reference,
			Notes:             req.Notes,
			CreatedBy:         req.CreatedBy,
		}
		if err := s.supplierRepo.CreateAccountEntry(tx, tenantID, payment); err != nil {
			return err
		}

		if req.RelatedPurchaseID != nil {
			purchase, err := s.supplierRepo.GetAccountEntryByID(tenantID, *req.RelatedPurchaseID)
			if err != nil {
				return err
			}
			if purchase.SupplierID != supplierID {
				return fmt.Errorf("%w: purchase %s belongs to another supplier", ErrValidation, *req.RelatedPurchaseID)
			}
			if purchase.TransactionType != models.AccountEntryPurchase {
				return fmt.Errorf("%w: entry %s is not a purchase", ErrValidation, *req.RelatedPurchaseID)
			}
			if purchase.PaidDate != nil {
				return fmt.Errorf("%w: purchase %s is already paid", ErrConflict, *req.RelatedPurchaseID)
			}
			if purchase.Amount == req.Amount {
				if err := s.supplierRepo.MarkEntryPaid(tx, tenantID, purchase.ID, now); err != nil {
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

func (s *supplierService) GetAccountStatement(tenantID string, supplierID string) (*SupplierAccountStatement, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	entries, err := s.supplierRepo.GetAccountEntries(tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	balance, err := s.supplierRepo.GetBalance(tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	return &SupplierAccountStatement{
		Supplier: supplier,
		Entries:  entries,
		Balance:  balance,
	}, nil
}

func (s *supplierService) GetUnpaidPurchases(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error) {
	return s.supplierRepo.GetUnpaidPurchases(tenantID, supplierID)
}

func (s *supplierService) GetPayableSummary(tenantID string) (*models.PayableSummary, error) {
	return s.supplierRepo.GetPayableSummary(tenantID, time.Now())
}

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

var ErrInsufficientStock = errors.New("insufficient stock for product")

// Default exchange rates used when a sale does not carry explicit ones.
// Rates are snapshotted per sale; these are just the fallback quotes.
var (
	DefaultExchangeRateUSD = decimal.NewFromInt(7300)
	DefaultExchangeRateBRL = decimal.NewFromInt(1450)
)

const defaultCreditTermDays = 30

// CreateSaleItemRequest is one line of a sale to create. UnitPrice overrides
// the product's current sale price when set (e.g. a negotiated price).
type CreateSaleItemRequest struct {
	ProductID       int64           `json:"product_id" binding:"required"`
	Quantity        int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice       *int64          `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CreateSaleRequest is the settlement input: the cart plus how it is paid.
type CreateSaleRequest struct {
	CustomerID         *int64                  `json:"customer_id"`
	Items              []CreateSaleItemRequest `json:"items" binding:"required,dive"`
	PaymentMethod      string                  `json:"payment_method" binding:"required"`
	CurrencyPaid       string                  `json:"currency_paid"`
	PaidAmountOriginal decimal.Decimal         `json:"paid_amount_original"`
	ExchangeRateUSD    decimal.Decimal         `json:"exchange_rate_usd"`
	ExchangeRateBRL    decimal.Decimal         `json:"exchange_rate_brl"`
	Installments       int                     `json:"installments"`
	CreditTermDays     int                     `json:"credit_term_days"`
	PixReference       string                  `json:"pix_reference"`
	Notes              string                  `json:"notes"`
	CreatedBy          *int64                  `json:"-"`
}

// SaleService settles and cancels sales. Every flow is a single database
// transaction: stock, ledgers and the sale header commit or roll back
// together.
type SaleService interface {
	CreateSale(tenantID string, req CreateSaleRequest) (*models.Sale, error)
	CreateSaleTx(tx repositories.SQLExecutor, tenantID string, req CreateSaleRequest) (*models.Sale, error)
	CancelSale(tenantID string, saleID string, cancelledBy *int64) (*models.Sale, error)
	GetSaleByID(tenantID string, saleID string) (*models.Sale, error)
	GetSales(tenantID string, filters models.SaleFilters) ([]models.Sale, int, error)
}

type saleService struct {
	saleRepo     repositories.SaleRepository
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	customerRepo repositories.CustomerRepository
	txManager    repositories.TxManager
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	sr repositories.SaleRepository,
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	cr repositories.CustomerRepository,
	tm repositories.TxManager,
) SaleService {
	return &saleService{
		saleRepo:     sr,
		productRepo:  pr,
		movementRepo: mr,
		customerRepo: cr,
		txManager:    tm,
	}
}

func (s *saleService) CreateSale(tenantID string, req CreateSaleRequest) (*models.Sale, error) {
	var sale *models.Sale
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		var err error
		sale, err = s.CreateSaleTx(tx, tenantID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// CreateSaleTx settles a sale inside the caller's transaction, so flows that
// pair the sale with other writes (order completion) commit atomically.
func (s *saleService) CreateSaleTx(tx repositories.SQLExecutor, tenantID string, req CreateSaleRequest) (*models.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", ErrValidation)
	}
	if !models.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	currency := req.CurrencyPaid
	if currency == "" {
		currency = models.CurrencyPYG
	}
	if !models.IsValidCurrency(currency) {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrValidation, currency)
	}
	if req.PaymentMethod == models.PaymentMethodCredit && req.CustomerID == nil {
		return nil, fmt.Errorf("%w: credit sales require a customer", ErrValidation)
	}
	if req.Installments < 0 {
		return nil, fmt.Errorf("%w: installments cannot be negative", ErrValidation)
	}

	rateUSD := req.ExchangeRateUSD
	if rateUSD.IsZero() {
		rateUSD = DefaultExchangeRateUSD
	}
	rateBRL := req.ExchangeRateBRL
	if rateBRL.IsZero() {
		rateBRL = DefaultExchangeRateBRL
	}

	now := time.Now()

	var (
		headerSubtotal int64
		headerTax      int64
		headerDiscount int64
		headerTotal    int64
		items          []models.SaleItem
		products       []*models.Product
	)
	for _, itemReq := range req.Items {
		product, err := s.productRepo.GetProductByIDForUpdate(tx, tenantID, itemReq.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s is inactive", ErrValidation, product.Code)
		}
		if product.TrackInventory && product.CurrentStock < itemReq.Quantity {
			return nil, fmt.Errorf("%w: %s has %d in stock, %d requested",
				ErrInsufficientStock, product.Code, product.CurrentStock, itemReq.Quantity)
		}

		unitPrice := product.SalePrice
		if itemReq.UnitPrice != nil {
			unitPrice = *itemReq.UnitPrice
		}
		amounts, err := PriceLine(itemReq.Quantity, unitPrice, itemReq.DiscountPercent, product.TaxType)
		if err != nil {
			return nil, err
		}

		headerSubtotal += amounts.Base
		headerTax += amounts.Tax
		headerDiscount += amounts.Discount
		headerTotal += amounts.Subtotal

		items = append(items, models.SaleItem{
			ProductID:       product.ID,
			Quantity:        itemReq.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: itemReq.DiscountPercent,
			TaxType:         product.TaxType,
			DiscountAmount:  amounts.Discount,
			Subtotal:        amounts.Subtotal,
			TaxAmount:       amounts.Tax,
		})
		products = append(products, product)
	}

	invoiceNumber, err := s.nextInvoiceNumber(tx, tenantID, now)
	if err != nil {
		return nil, err
	}

	paidPYG, changePYG, paidOriginal, err := settlePayment(req, currency, rateUSD, rateBRL, headerTotal)
	if err != nil {
		return nil, err
	}

	status := models.SaleStatusCompleted
	if req.PaymentMethod == models.PaymentMethodCredit {
		status = models.SaleStatusPending
	}

	sale := &models.Sale{
		ID:                 uuid.NewString(),
		InvoiceNumber:      invoiceNumber,
		CustomerID:         req.CustomerID,
		SaleDate:           now,
		Subtotal:           headerSubtotal,
		TaxAmount:          headerTax,
		DiscountAmount:     headerDiscount,
		TotalAmount:        headerTotal,
		PaymentMethod:      req.PaymentMethod,
		PaidAmount:         paidPYG,
		ChangeAmount:       changePYG,
		CurrencyPaid:       currency,
		PaidAmountOriginal: paidOriginal,
		ExchangeRateUSD:    rateUSD,
		ExchangeRateBRL:    rateBRL,
		PixReference:       req.PixReference,
		Status:             status,
		Notes:              req.Notes,
		CreatedBy:          req.CreatedBy,
	}
	if err := s.saleRepo.CreateSale(tx, tenantID, sale); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(tx, tenantID, &items[i]); err != nil {
			return nil, err
		}

		product := products[i]
		if !product.TrackInventory {
			continue
		}
		newStock := product.CurrentStock - items[i].Quantity
		if err := s.productRepo.UpdateStock(tx, tenantID, product.ID, newStock); err != nil {
			return nil, err
		}
		movement := &models.StockMovement{
			ProductID:     product.ID,
			MovementType:  models.MovementTypeSale,
			Quantity:      -items[i].Quantity,
			PreviousStock: product.CurrentStock,
			NewStock:      newStock,
			Reference:     invoiceNumber,
			CreatedBy:     req.CreatedBy,
		}
		if _, err := s.movementRepo.CreateMovement(tx, tenantID, movement); err != nil {
			return nil, err
		}
	}

	if req.PaymentMethod == models.PaymentMethodCredit {
		if err := s.postCreditEntry(tx, tenantID, sale, req, now); err != nil {
			return nil, err
		}
	}
	sale.Items = items
	return sale, nil
}

// nextInvoiceNumber derives the next INV-%06d from the tenant's last invoice.
// When the last invoice does not parse (imported data, legacy formats) a
// time-based number keeps the flow going instead of failing the sale.
func (s *saleService) nextInvoiceNumber(tx repositories.SQLExecutor, tenantID string, now time.Time) (string, error) {
	last, err := s.saleRepo.GetLastInvoiceNumber(tx, tenantID)
	if err != nil {
		return "", err
	}
	if last == "" {
		return "INV-000001", nil
	}
	var n int64
	if _, err := fmt.Sscanf(last, "INV-%d", &n); err != nil || n <= 0 {
		return fmt.Sprintf("INV-%d", now.Unix()), nil
	}
	return fmt.Sprintf("INV-%06d", n+1), nil
}

// settlePayment converts the tendered amount to PYG at the snapshotted rate
// and computes change. Credit sales settle nothing up front. An underpaid
// tender still settles with zero change; the shortfall stays visible through
// the sale's outstanding balance.
func settlePayment(req CreateSaleRequest, currency string, rateUSD, rateBRL decimal.Decimal, total int64) (paidPYG int64, changePYG int64, paidOriginal decimal.Decimal, err error) {
	if req.PaymentMethod == models.PaymentMethodCredit {
		return 0, 0, decimal.Zero, nil
	}

	paidOriginal = req.PaidAmountOriginal
	if paidOriginal.IsZero() && currency == models.CurrencyPYG {
		// Exact payment when no tendered amount is given.
		paidOriginal = decimal.NewFromInt(total)
	}
	if paidOriginal.IsNegative() {
		return 0, 0, decimal.Zero, fmt.Errorf("%w: paid amount cannot be negative", ErrValidation)
	}

	switch currency {
	case models.CurrencyUSD:
		paidPYG = paidOriginal.Mul(rateUSD).Round(0).IntPart()
	case models.CurrencyBRL:
		paidPYG = paidOriginal.Mul(rateBRL).Round(0).IntPart()
	default:
		paidPYG = paidOriginal.Round(0).IntPart()
	}

	if paidPYG > total {
		changePYG = paidPYG - total
	}
	return paidPYG, changePYG, paidOriginal, nil
}

// postCreditEntry opens the receivable for a credit sale: one ledger entry
// for the full amount plus the matching balance increment.
func (s *saleService) postCreditEntry(tx repositories.SQLExecutor, tenantID string, sale *models.Sale, req CreateSaleRequest, now time.Time) error {
	termDays := req.CreditTermDays
	if termDays <= 0 {
		termDays = defaultCreditTermDays
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}
	dueDate := now.AddDate(0, 0, termDays)

	entry := &models.CustomerAccountEntry{
		CustomerID:        *sale.CustomerID,
		TransactionType:   models.AccountEntrySale,
		Amount:            sale.TotalAmount,
		TransactionDate:   now,
		DueDate:           &dueDate,
		TotalInstallments: installments,
		InstallmentNumber: 1,
		SaleID:            &sale.ID,
		Reference:         sale.InvoiceNumber,
		CreatedBy:         req.CreatedBy,
	}
	if _, err := s.customerRepo.CreateAccountEntry(tx, tenantID, entry); err != nil {
		return err
	}
	return s.customerRepo.AdjustBalance(tx, tenantID, *sale.CustomerID, sale.TotalAmount)
}

// CancelSale reverses a sale without touching history: stock comes back as
// positive adjustment movements and any open receivable is compensated with
// a negative adjustment entry. Cancellation is terminal.
func (s *saleService) CancelSale(tenantID string, saleID string, cancelledBy *int64) (*models.Sale, error) {
	var sale *models.Sale
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		var err error
		sale, err = s.saleRepo.GetSaleByIDForUpdate(tx, tenantID, saleID)
		if err != nil {
			return err
		}
		if sale.Status == models.SaleStatusCancelled {
			return fmt.Errorf("%w: sale %s is already cancelled", ErrConflict, sale.InvoiceNumber)
		}

		items, err := s.saleRepo.GetSaleItems(tx, tenantID, saleID)
		if err != nil {
			return err
		}
		reference := "CANCEL-" + sale.InvoiceNumber

		for _, item := range items {
			product, err := s.productRepo.GetProductByIDForUpdate(tx, tenantID, item.ProductID)
			if err != nil {
				return err
			}
			if !product.TrackInventory {
				continue
			}
			newStock := product.CurrentStock + item.Quantity
			if err := s.productRepo.UpdateStock(tx, tenantID, product.ID, newStock); err != nil {
				return err
			}
			movement := &models.StockMovement{
				ProductID:     product.ID,
				MovementType:  models.MovementTypeAdjustment,
				Quantity:      item.Quantity,
				PreviousStock: product.CurrentStock,
				NewStock:      newStock,
				Reference:     reference,
				CreatedBy:     cancelledBy,
			}
			if _, err := s.movementRepo.CreateMovement(tx, tenantID, movement); err != nil {
				return err
			}
		}

		if sale.PaymentMethod == models.PaymentMethodCredit && sale.CustomerID != nil {
			outstanding := sale.OutstandingBalance()
			if outstanding > 0 {
				now := time.Now()
				entry := &models.CustomerAccountEntry{
					CustomerID:      *sale.CustomerID,
					TransactionType: models.AccountEntryAdjustment,
					Amount:          -outstanding,
					TransactionDate: now,
					SaleID:          &sale.ID,
					Reference:       reference,
					CreatedBy:       cancelledBy,
				}
				if _, err := s.customerRepo.CreateAccountEntry(tx, tenantID, entry); err != nil {
					return err
				}
				if err := s.customerRepo.AdjustBalance(tx, tenantID, *sale.CustomerID, -outstanding); err != nil {
					return err
				}
			}
		}

		if err := s.saleRepo.UpdateSaleStatus(tx, tenantID, saleID, models.SaleStatusCancelled); err != nil {
			return err
		}
		sale.Status = models.SaleStatusCancelled
		sale.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) GetSaleByID(tenantID string, saleID string) (*models.Sale, error) {
	return s.saleRepo.GetSaleByID(tenantID, saleID)
}

func (s *saleService) GetSales(tenantID string, filters models.SaleFilters) ([]models.Sale, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.saleRepo.GetSales(tenantID, filters)
}

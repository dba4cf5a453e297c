package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

// CreateQuoteItemRequest is one line of a quote to create.
type CreateQuoteItemRequest struct {
	ProductID       int64           `json:"product_id" binding:"required"`
	Quantity        int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice       *int64          `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CreateQuoteRequest creates a priced quote for a customer.
type CreateQuoteRequest struct {
	CustomerID *int64                   `json:"customer_id"`
	ValidDays  int                      `json:"valid_days"`
	Items      []CreateQuoteItemRequest `json:"items" binding:"required,dive"`
	Notes      string                   `json:"notes"`
	CreatedBy  *int64                   `json:"-"`
}

// GenerateSaleRequest turns a completed order into a sale: the cart comes
// from the order, the payment terms come from here.
type GenerateSaleRequest struct {
	PaymentMethod      string          `json:"payment_method" binding:"required"`
	CurrencyPaid       string          `json:"currency_paid"`
	PaidAmountOriginal decimal.Decimal `json:"paid_amount_original"`
	ExchangeRateUSD    decimal.Decimal `json:"exchange_rate_usd"`
	ExchangeRateBRL    decimal.Decimal `json:"exchange_rate_brl"`
	Installments       int             `json:"installments"`
	Notes              string          `json:"notes"`
	CreatedBy          *int64          `json:"-"`
}

// QuoteService manages quotes, their conversion to orders, and the sale
// generated when an order completes.
type QuoteService interface {
	CreateQuote(tenantID string, req CreateQuoteRequest) (*models.Quote, error)
	GetQuoteByID(tenantID string, id string) (*models.Quote, error)
	GetQuotes(tenantID string, status *string, page, pageSize int) ([]models.Quote, int, error)
	SendQuote(tenantID string, id string) (*models.Quote, error)
	ApproveQuote(tenantID string, id string) (*models.Quote, error)
	RejectQuote(tenantID string, id string) (*models.Quote, error)
	ConvertToOrder(tenantID string, quoteID string, createdBy *int64) (*models.Order, error)

	GetOrderByID(tenantID string, id string) (*models.Order, error)
	GetOrders(tenantID string, status *string, page, pageSize int) ([]models.Order, int, error)
	UpdateOrderStatus(tenantID string, id string, status string) (*models.Order, error)
	GenerateSale(tenantID string, orderID string, req GenerateSaleRequest) (*models.Sale, error)
}

type quoteService struct {
	quoteRepo   repositories.QuoteRepository
	productRepo repositories.ProductRepository
	saleService SaleService
	txManager   repositories.TxManager
}

// NewQuoteService creates a new instance of QuoteService.
func NewQuoteService(
	qr repositories.QuoteRepository,
	pr repositories.ProductRepository,
	ss SaleService,
	tm repositories.TxManager,
) QuoteService {
	return &quoteService{
		quoteRepo:   qr,
		productRepo: pr,
		saleService: ss,
		txManager:   tm,
	}
}

func (s *quoteService) CreateQuote(tenantID string, req CreateQuoteRequest) (*models.Quote, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a quote needs at least one item", ErrValidation)
	}

	var quote *models.Quote
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		now := time.Now()

		var (
			subtotal int64
			tax      int64
			total    int64
			items    []models.QuoteItem
		)
		for _, itemReq := range req.Items {
			product, err := s.productRepo.GetProductByID(tenantID, itemReq.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: product %s is inactive", ErrValidation, product.Code)
			}
			unitPrice := product.SalePrice
			if itemReq.UnitPrice != nil {
				unitPrice = *itemReq.UnitPrice
			}
			amounts, err := PriceLine(itemReq.Quantity, unitPrice, itemReq.DiscountPercent, product.TaxType)
			if err != nil {
				return err
			}
			subtotal += amounts.Base
			tax += amounts.Tax
			total += amounts.Subtotal
			items = append(items, models.QuoteItem{
				ProductID:       product.ID,
				Quantity:        itemReq.Quantity,
				UnitPrice:       unitPrice,
				DiscountPercent: itemReq.DiscountPercent,
				TaxType:         product.TaxType,
				DiscountAmount:  amounts.Discount,
				Subtotal:        amounts.Subtotal,
				TaxAmount:       amounts.Tax,
			})
		}

		number, err := s.nextQuoteNumber(tx, tenantID, now)
		if err != nil {
			return err
		}
		var validUntil *time.Time
		if req.ValidDays > 0 {
			v := now.AddDate(0, 0, req.ValidDays)
			validUntil = &v
		}

		quote = &models.Quote{
			ID:          uuid.NewString(),
			QuoteNumber: number,
			CustomerID:  req.CustomerID,
			QuoteDate:   now,
			ValidUntil:  validUntil,
			Subtotal:    subtotal,
			TaxAmount:   tax,
			TotalAmount: total,
			Status:      models.QuoteStatusDraft,
			Notes:       req.Notes,
			CreatedBy:   req.CreatedBy,
		}
		if err := s.quoteRepo.CreateQuote(tx, tenantID, quote); err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = quote.ID
			if _, err := s.quoteRepo.CreateQuoteItem(tx, tenantID, &items[i]); err != nil {
				return err
			}
		}
		quote.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *quoteService) nextQuoteNumber(tx repositories.SQLExecutor, tenantID string, now time.Time) (string, error) {
	last, err := s.quoteRepo.GetLastQuoteNumber(tx, tenantID)
	if err != nil {
		return "", err
	}
	if last == "" {
		return "QUO-000001", nil
	}
	var n int64
	if _, err := fmt.Sscanf(last, "QUO-%d", &n); err != nil || n <= 0 {
		return fmt.Sprintf("QUO-%d", now.Unix()), nil
	}
	return fmt.Sprintf("QUO-%06d", n+1), nil
}

func (s *quoteService) nextOrderNumber(tx repositories.SQLExecutor, tenantID string, now time.Time) (string, error) {
	last, err := s.quoteRepo.GetLastOrderNumber(tx, tenantID)
	if err != nil {
		return "", err
	}
	if last == "" {
		return "ORD-000001", nil
	}
	var n int64
	if _, err := fmt.Sscanf(last, "ORD-%d", &n); err != nil || n <= 0 {
		return fmt.Sprintf("ORD-%d", now.Unix()), nil
	}
	return fmt.Sprintf("ORD-%06d", n+1), nil
}

func (s *quoteService) GetQuoteByID(tenantID string, id string) (*models.Quote, error) {
	return s.quoteRepo.GetQuoteByID(tenantID, id)
}

func (s *quoteService) GetQuotes(tenantID string, status *string, page, pageSize int) ([]models.Quote, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.quoteRepo.GetQuotes(tenantID, status, page, pageSize)
}

// transitionQuote enforces the quote lifecycle: draft → sent → approved or
// rejected. Converted is set only by ConvertToOrder.
func (s *quoteService) transitionQuote(tenantID string, id string, target string) (*models.Quote, error) {
	var quote *models.Quote
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		var err error
		quote, err = s.quoteRepo.GetQuoteByIDForUpdate(tx, tenantID, id)
		if err != nil {
			return err
		}
		allowed := map[string]string{
			models.QuoteStatusSent:     models.QuoteStatusDraft,
			models.QuoteStatusApproved: models.QuoteStatusSent,
			models.QuoteStatusRejected: models.QuoteStatusSent,
		}
		if from, ok := allowed[target]; !ok || quote.Status != from {
			return fmt.Errorf("%w: cannot move quote %s from %s to %s", ErrConflict, quote.QuoteNumber, quote.Status, target)
		}
		if err := s.quoteRepo.UpdateQuoteStatus(tx, tenantID, id, target); err != nil {
			return err
		}
		quote.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *quoteService) SendQuote(tenantID string, id string) (*models.Quote, error) {
	return s.transitionQuote(tenantID, id, models.QuoteStatusSent)
}

func (s *quoteService) ApproveQuote(tenantID string, id string) (*models.Quote, error) {
	return s.transitionQuote(tenantID, id, models.QuoteStatusApproved)
}

func (s *quoteService) RejectQuote(tenantID string, id string) (*models.Quote, error) {
	return s.transitionQuote(tenantID, id, models.QuoteStatusRejected)
}

// ConvertToOrder turns an approved quote into a pending order, copying the
// priced lines as they were quoted. A quote converts at most once.
func (s *quoteService) ConvertToOrder(tenantID string, quoteID string, createdBy *int64) (*models.Order, error) {
	var order *models.Order
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		quote, err := s.quoteRepo.GetQuoteByIDForUpdate(tx, tenantID, quoteID)
		if err != nil {
			return err
		}
		if quote.Status != models.QuoteStatusApproved {
			return fmt.Errorf("%w: quote %s is %s, only approved quotes convert", ErrConflict, quote.QuoteNumber, quote.Status)
		}
		if quote.IsExpired(time.Now()) {
			return fmt.Errorf("%w: quote %s has expired", ErrConflict, quote.QuoteNumber)
		}

		now := time.Now()
		number, err := s.nextOrderNumber(tx, tenantID, now)
		if err != nil {
			return err
		}
		order = &models.Order{
			ID:          uuid.NewString(),
			OrderNumber: number,
			QuoteID:     &quote.ID,
			CustomerID:  quote.CustomerID,
			OrderDate:   now,
			Subtotal:    quote.Subtotal,
			TaxAmount:   quote.TaxAmount,
			TotalAmount: quote.TotalAmount,
			Status:      models.OrderStatusPending,
			Notes:       quote.Notes,
			CreatedBy:   createdBy,
		}
		if err := s.quoteRepo.CreateOrder(tx, tenantID, order); err != nil {
			return err
		}
		for _, qi := range quote.Items {
			item := models.OrderItem{
				OrderID:         order.ID,
				ProductID:       qi.ProductID,
				Quantity:        qi.Quantity,
				UnitPrice:       qi.UnitPrice,
				DiscountPercent: qi.DiscountPercent,
				TaxType:         qi.TaxType,
				DiscountAmount:  qi.DiscountAmount,
				Subtotal:        qi.Subtotal,
				TaxAmount:       qi.TaxAmount,
			}
			if _, err := s.quoteRepo.CreateOrderItem(tx, tenantID, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return s.quoteRepo.UpdateQuoteStatus(tx, tenantID, quoteID, models.QuoteStatusConverted)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *quoteService) GetOrderByID(tenantID string, id string) (*models.Order, error) {
	return s.quoteRepo.GetOrderByID(tenantID, id)
}

func (s *quoteService) GetOrders(tenantID string, status *string, page, pageSize int) ([]models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.quoteRepo.GetOrders(tenantID, status, page, pageSize)
}

func (s *quoteService) UpdateOrderStatus(tenantID string, id string, status string) (*models.Order, error) {
	switch status {
	case models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCancelled:
	case models.OrderStatusCompleted:
		return nil, fmt.Errorf("%w: orders complete through sale generation", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	var order *models.Order
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		var err error
		order, err = s.quoteRepo.GetOrderByIDForUpdate(tx, tenantID, id)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is %s", ErrConflict, order.OrderNumber, order.Status)
		}
		if err := s.quoteRepo.UpdateOrderStatus(tx, tenantID, id, status); err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GenerateSale settles a ready order: the cart is the order's lines and the
// sale goes through the same settlement flow as a counter sale (stock,
// ledger, invoice number). The order is locked and completed in the same
// transaction as the sale, so a failed settlement leaves the order untouched
// and two racing calls cannot both settle it.
func (s *quoteService) GenerateSale(tenantID string, orderID string, req GenerateSaleRequest) (*models.Sale, error) {
	var sale *models.Sale
	err := s.txManager.WithinTransaction(func(tx repositories.SQLExecutor) error {
		order, err := s.quoteRepo.GetOrderByIDForUpdate(tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is %s", ErrConflict, order.OrderNumber, order.Status)
		}
		if len(order.Items) == 0 {
			return fmt.Errorf("%w: order %s has no items", ErrValidation, order.OrderNumber)
		}

		saleItems := make([]CreateSaleItemRequest, 0, len(order.Items))
		for _, item := range order.Items {
			unitPrice := item.UnitPrice
			saleItems = append(saleItems, CreateSaleItemRequest{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				UnitPrice:       &unitPrice,
				DiscountPercent: item.DiscountPercent,
			})
		}
		sale, err = s.saleService.CreateSaleTx(tx, tenantID, CreateSaleRequest{
			CustomerID:         order.CustomerID,
			Items:              saleItems,
			PaymentMethod:      req.PaymentMethod,
			CurrencyPaid:       req.CurrencyPaid,
			PaidAmountOriginal: req.PaidAmountOriginal,
			ExchangeRateUSD:    req.ExchangeRateUSD,
			ExchangeRateBRL:    req.ExchangeRateBRL,
			Installments:       req.Installments,
			Notes:              req.Notes,
			CreatedBy:          req.CreatedBy,
		})
		if err != nil {
			return err
		}

		if err := s.quoteRepo.SetOrderSale(tx, tenantID, orderID, sale.ID); err != nil {
			return err
		}
		return s.quoteRepo.UpdateOrderStatus(tx, tenantID, orderID, models.OrderStatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

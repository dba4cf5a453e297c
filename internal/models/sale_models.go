package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at the point of sale.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCredit   = "credit"
	PaymentMethodPix      = "pix"
)

// IsValidPaymentMethod reports whether m is a known payment method.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCredit, PaymentMethodPix:
		return true
	default:
		return false
	}
}

// Sale statuses. Cash/card/transfer sales complete immediately; credit sales
// stay pending until settled. Cancelled is terminal.
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
)

// Sale is the header of a sales transaction.
//
// Aggregation convention: Subtotal is the tax-exclusive sum of the line base
// amounts, TaxAmount the sum of extracted line taxes, and TotalAmount =
// Subtotal + TaxAmount, which equals the sum of the (tax-inclusive) line
// subtotals. Note that SaleItem.Subtotal is tax-inclusive: the two fields
// measure different things despite the shared name.
//
// Unit prices, exchange rates and the tax category are snapshotted at sale
// time so later product changes never alter historical sales.
type Sale struct {
	ID                 string          `json:"id" db:"id"`
	TenantID           string          `json:"tenant_id" db:"tenant_id"`
	InvoiceNumber      string          `json:"invoice_number" db:"invoice_number"`
	CustomerID         *int64          `json:"customer_id,omitempty" db:"customer_id"`
	SaleDate           time.Time       `json:"sale_date" db:"sale_date"`
	Subtotal           int64           `json:"subtotal" db:"subtotal"`
	TaxAmount          int64           `json:"tax_amount" db:"tax_amount"`
	DiscountAmount     int64           `json:"discount_amount" db:"discount_amount"`
	TotalAmount        int64           `json:"total_amount" db:"total_amount"`
	PaymentMethod      string          `json:"payment_method" db:"payment_method"`
	PaidAmount         int64           `json:"paid_amount" db:"paid_amount"` // in PYG
	ChangeAmount       int64           `json:"change_amount" db:"change_amount"`
	CurrencyPaid       string          `json:"currency_paid" db:"currency_paid"`
	PaidAmountOriginal decimal.Decimal `json:"paid_amount_original" db:"paid_amount_original"`
	ExchangeRateUSD    decimal.Decimal `json:"exchange_rate_usd" db:"exchange_rate_usd"`
	ExchangeRateBRL    decimal.Decimal `json:"exchange_rate_brl" db:"exchange_rate_brl"`
	PixReference       string          `json:"pix_reference,omitempty" db:"pix_reference"`
	Status             string          `json:"status" db:"status"`
	Notes              string          `json:"notes,omitempty" db:"notes"`
	CreatedBy          *int64          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
	Items              []SaleItem      `json:"items,omitempty"`
	Customer           *Customer       `json:"customer,omitempty"`
}

// IsPaid reports whether the sale is fully paid.
func (s *Sale) IsPaid() bool {
	return s.PaidAmount >= s.TotalAmount
}

// OutstandingBalance is the unpaid part of the total, never negative.
func (s *Sale) OutstandingBalance() int64 {
	if s.TotalAmount > s.PaidAmount {
		return s.TotalAmount - s.PaidAmount
	}
	return 0
}

// SaleItem is one line of a sale. UnitPrice is tax-inclusive; Subtotal is the
// post-discount gross (still tax-inclusive) and TaxAmount the portion of it
// extracted as tax. Lines are immutable once the sale is finalized.
type SaleItem struct {
	ID              int64           `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	SaleID          string          `json:"sale_id" db:"sale_id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	Quantity        int64           `json:"quantity" db:"quantity"`
	UnitPrice       int64           `json:"unit_price" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	TaxType         TaxType         `json:"tax_type" db:"tax_type"`
	DiscountAmount  int64           `json:"discount_amount" db:"discount_amount"`
	Subtotal        int64           `json:"subtotal" db:"subtotal"`
	TaxAmount       int64           `json:"tax_amount" db:"tax_amount"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Product         *Product        `json:"product,omitempty"`
}

// BaseAmount is the tax-exclusive portion of the line subtotal.
func (i *SaleItem) BaseAmount() int64 {
	return i.Subtotal - i.TaxAmount
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	CustomerID    *int64  `form:"customer_id"`
	Status        *string `form:"status"`
	PaymentMethod *string `form:"payment_method"`
	Date          *string `form:"date"` // YYYY-MM-DD
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// Cash register statuses.
const (
	CashRegisterOpen   = "open"
	CashRegisterClosed = "closed"
)

// CashAmounts holds one amount per accepted currency. USD and BRL are counted
// with cents, so the register keeps decimals even though PYG never has them.
type CashAmounts struct {
	PYG decimal.Decimal `json:"pyg"`
	USD decimal.Decimal `json:"usd"`
	BRL decimal.Decimal `json:"brl"`
}

// Sub returns a − b per currency.
func (a CashAmounts) Sub(b CashAmounts) CashAmounts {
	return CashAmounts{
		PYG: a.PYG.Sub(b.PYG),
		USD: a.USD.Sub(b.USD),
		BRL: a.BRL.Sub(b.BRL),
	}
}

// Add returns a + b per currency.
func (a CashAmounts) Add(b CashAmounts) CashAmounts {
	return CashAmounts{
		PYG: a.PYG.Add(b.PYG),
		USD: a.USD.Add(b.USD),
		BRL: a.BRL.Add(b.BRL),
	}
}

// CashRegister is a bounded cash session: opened with a float per currency,
// closed once with counted amounts against computed expectations. A closed
// register is terminal; a new one must be opened instead.
type CashRegister struct {
	ID        string      `json:"id" db:"id"`
	TenantID  string      `json:"tenant_id" db:"tenant_id"`
	Status    string      `json:"status" db:"status"`
	OpenedBy  *int64      `json:"opened_by,omitempty" db:"opened_by"`
	OpenedAt  time.Time   `json:"opened_at" db:"opened_at"`
	ClosedBy  *int64      `json:"closed_by,omitempty" db:"closed_by"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty" db:"closed_at"`
	Initial   CashAmounts `json:"initial_amounts"`
	Expected  CashAmounts `json:"expected_amounts"`
	Actual    CashAmounts `json:"actual_amounts"`
	Diff      CashAmounts `json:"differences"`
	Notes     string      `json:"notes,omitempty" db:"notes"`
}

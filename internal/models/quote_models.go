package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote statuses. A quote converts to an order at most once.
const (
	QuoteStatusDraft     = "draft"
	QuoteStatusSent      = "sent"
	QuoteStatusApproved  = "approved"
	QuoteStatusRejected  = "rejected"
	QuoteStatusExpired   = "expired"
	QuoteStatusConverted = "converted"
)

// Quote is a priced offer to a customer. Amounts follow the same
// tax-inclusive convention as sales: Subtotal is the sum of line base
// amounts, TotalAmount = Subtotal + TaxAmount.
type Quote struct {
	ID          string      `json:"id" db:"id"`
	TenantID    string      `json:"tenant_id" db:"tenant_id"`
	QuoteNumber string      `json:"quote_number" db:"quote_number"`
	CustomerID  *int64      `json:"customer_id,omitempty" db:"customer_id"`
	QuoteDate   time.Time   `json:"quote_date" db:"quote_date"`
	ValidUntil  *time.Time  `json:"valid_until,omitempty" db:"valid_until"`
	Subtotal    int64       `json:"subtotal" db:"subtotal"`
	TaxAmount   int64       `json:"tax_amount" db:"tax_amount"`
	TotalAmount int64       `json:"total_amount" db:"total_amount"`
	Status      string      `json:"status" db:"status"`
	Notes       string      `json:"notes,omitempty" db:"notes"`
	CreatedBy   *int64      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []QuoteItem `json:"items,omitempty"`
	Customer    *Customer   `json:"customer,omitempty"`
}

// IsExpired reports whether the quote's validity window has passed.
func (q *Quote) IsExpired(asOf time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(asOf)
}

// QuoteItem is one priced line of a quote, with the unit price, discount and
// tax category snapshotted so the quote stays stable when the product changes.
type QuoteItem struct {
	ID              int64           `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	QuoteID         string          `json:"quote_id" db:"quote_id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	Quantity        int64           `json:"quantity" db:"quantity"`
	UnitPrice       int64           `json:"unit_price" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	TaxType         TaxType         `json:"tax_type" db:"tax_type"`
	DiscountAmount  int64           `json:"discount_amount" db:"discount_amount"`
	Subtotal        int64           `json:"subtotal" db:"subtotal"`
	TaxAmount       int64           `json:"tax_amount" db:"tax_amount"`
	Product         *Product        `json:"product,omitempty"`
}

// Order statuses. Completing an order generates a sale through the
// settlement service; the order then records the sale it produced.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is confirmed work to fulfill, usually converted from an approved
// quote. Amounts are copied from the quote lines at conversion time.
type Order struct {
	ID          string      `json:"id" db:"id"`
	TenantID    string      `json:"tenant_id" db:"tenant_id"`
	OrderNumber string      `json:"order_number" db:"order_number"`
	QuoteID     *string     `json:"quote_id,omitempty" db:"quote_id"`
	CustomerID  *int64      `json:"customer_id,omitempty" db:"customer_id"`
	OrderDate   time.Time   `json:"order_date" db:"order_date"`
	Subtotal    int64       `json:"subtotal" db:"subtotal"`
	TaxAmount   int64       `json:"tax_amount" db:"tax_amount"`
	TotalAmount int64       `json:"total_amount" db:"total_amount"`
	Status      string      `json:"status" db:"status"`
	SaleID      *string     `json:"sale_id,omitempty" db:"sale_id"`
	Notes       string      `json:"notes,omitempty" db:"notes"`
	CreatedBy   *int64      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []OrderItem `json:"items,omitempty"`
	Customer    *Customer   `json:"customer,omitempty"`
}

// OrderItem is one line of an order, carried over from the source quote.
type OrderItem struct {
	ID              int64           `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	OrderID         string          `json:"order_id" db:"order_id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	Quantity        int64           `json:"quantity" db:"quantity"`
	UnitPrice       int64           `json:"unit_price" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	TaxType         TaxType         `json:"tax_type" db:"tax_type"`
	DiscountAmount  int64           `json:"discount_amount" db:"discount_amount"`
	Subtotal        int64           `json:"subtotal" db:"subtotal"`
	TaxAmount       int64           `json:"tax_amount" db:"tax_amount"`
	Product         *Product        `json:"product,omitempty"`
}

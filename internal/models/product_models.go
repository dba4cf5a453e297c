package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxType is the IVA category printed on Paraguayan invoices. Prices are
// always tax-inclusive; the rate is used to extract the tax portion, never to
// add tax on top.
type TaxType string

const (
	TaxTypeExempt   TaxType = "exempt"
	TaxTypeReduced  TaxType = "5"
	TaxTypeStandard TaxType = "10"
)

// Rate returns the tax rate as a decimal fraction (0, 0.05 or 0.10).
// Unknown values fall back to the standard rate, matching the product default.
func (t TaxType) Rate() decimal.Decimal {
	switch t {
	case TaxTypeExempt:
		return decimal.Zero
	case TaxTypeReduced:
		return decimal.New(5, -2)
	default:
		return decimal.New(10, -2)
	}
}

// Valid reports whether t is one of the known tax categories.
func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeExempt, TaxTypeReduced, TaxTypeStandard:
		return true
	default:
		return false
	}
}

// Category groups products within a tenant.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Product is an item for sale. SalePrice is tax-inclusive, in whole guaraníes.
// CurrentStock is a running counter that always equals the sum of the
// product's stock movements.
type Product struct {
	ID             int64     `json:"id" db:"id"`
	TenantID       string    `json:"tenant_id" db:"tenant_id"`
	CategoryID     *int64    `json:"category_id,omitempty" db:"category_id"`
	Code           string    `json:"code" db:"code" binding:"required"`
	Name           string    `json:"name" db:"name" binding:"required"`
	Description    string    `json:"description,omitempty" db:"description"`
	CostPrice      int64     `json:"cost_price" db:"cost_price"`
	SalePrice      int64     `json:"sale_price" db:"sale_price" binding:"required,gt=0"`
	WholesalePrice *int64    `json:"wholesale_price,omitempty" db:"wholesale_price"`
	CurrentStock   int64     `json:"current_stock" db:"current_stock"`
	MinimumStock   int64     `json:"minimum_stock" db:"minimum_stock"`
	Unit           string    `json:"unit" db:"unit"` // unit, kg, liter, box, bag
	TaxType        TaxType   `json:"tax_type" db:"tax_type"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	TrackInventory bool      `json:"track_inventory" db:"track_inventory"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	Category       *Category `json:"category,omitempty"`
}

// IsLowStock reports whether the product is at or below its minimum stock.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinimumStock
}

// Stock movement types.
const (
	MovementTypePurchase   = "purchase"
	MovementTypeSale       = "sale"
	MovementTypeAdjustment = "adjustment"
	MovementTypeReturn     = "return"
)

// StockMovement is an immutable, signed ledger row: positive quantity
// increases stock, negative decreases it, and NewStock = PreviousStock +
// Quantity always holds. Movements are only ever appended; a cancellation
// appends a compensating movement instead of editing history.
type StockMovement struct {
	ID            int64     `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	ProductID     int64     `json:"product_id" db:"product_id"`
	MovementType  string    `json:"movement_type" db:"movement_type"`
	Quantity      int64     `json:"quantity" db:"quantity"`
	PreviousStock int64     `json:"previous_stock" db:"previous_stock"`
	NewStock      int64     `json:"new_stock" db:"new_stock"`
	Reference     string    `json:"reference,omitempty" db:"reference"`
	Notes         string    `json:"notes,omitempty" db:"notes"`
	CreatedBy     *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Product       *Product  `json:"product,omitempty"`
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	CategoryID *int64  `form:"category_id"`
	Search     *string `form:"search"`
	LowStock   bool    `form:"low_stock"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

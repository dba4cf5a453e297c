package models

import "time"

// Currency codes accepted at the point of sale. PYG is the base currency and
// has no subunits, so every PYG amount in the system is a whole number.
const (
	CurrencyPYG = "PYG"
	CurrencyUSD = "USD"
	CurrencyBRL = "BRL"
)

// IsValidCurrency reports whether code is one of the accepted currencies.
func IsValidCurrency(code string) bool {
	switch code {
	case CurrencyPYG, CurrencyUSD, CurrencyBRL:
		return true
	default:
		return false
	}
}

// Tenant represents a business/company using the system. Every domain row
// carries a tenant ID and every query filters by it.
type Tenant struct {
	ID                  string     `json:"id" db:"id"`
	Name                string     `json:"name" db:"name" binding:"required"`
	Slug                string     `json:"slug" db:"slug"`
	TaxID               string     `json:"tax_id" db:"tax_id"`
	Address             string     `json:"address,omitempty" db:"address"`
	Phone               string     `json:"phone,omitempty" db:"phone"`
	Email               string     `json:"email,omitempty" db:"email"`
	SubscriptionPlan    string     `json:"subscription_plan" db:"subscription_plan"` // trial, basic, premium
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty" db:"subscription_expires"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// TenantUser links a user to a tenant with a role. A user can belong to
// multiple tenants; the JWT carries the tenant the session is scoped to.
type TenantUser struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Role      string    `json:"role" db:"role"` // owner, admin, seller, viewer
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package models

import "time"

// Customer is a client with optional credit account support. CurrentBalance
// is a running counter kept equal to the signed sum of the customer's account
// entries at all times.
type Customer struct {
	ID             int64     `json:"id" db:"id"`
	TenantID       string    `json:"tenant_id" db:"tenant_id"`
	Name           string    `json:"name" db:"name" binding:"required"`
	TaxID          string    `json:"tax_id,omitempty" db:"tax_id"` // RUC/CI
	Email          string    `json:"email,omitempty" db:"email"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	Mobile         string    `json:"mobile,omitempty" db:"mobile"`
	Address        string    `json:"address,omitempty" db:"address"`
	City           string    `json:"city,omitempty" db:"city"`
	CustomerType   string    `json:"customer_type" db:"customer_type"` // retail, wholesale
	CreditLimit    int64     `json:"credit_limit" db:"credit_limit"`
	CurrentBalance int64     `json:"current_balance" db:"current_balance"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Notes          string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// HasDebt reports whether the customer owes anything.
func (c *Customer) HasDebt() bool {
	return c.CurrentBalance > 0
}

// AvailableCredit is the remaining credit headroom.
func (c *Customer) AvailableCredit() int64 {
	return c.CreditLimit - c.CurrentBalance
}

// Account ledger transaction types. Debt-creating entries (sale, purchase)
// carry positive amounts; payments carry negative amounts; adjustments are
// signed either way. A party's balance is always the plain sum of its entries.
const (
	AccountEntrySale       = "sale"
	AccountEntryPurchase   = "purchase"
	AccountEntryPayment    = "payment"
	AccountEntryAdjustment = "adjustment"
)

// CustomerAccountEntry is one immutable row of a customer's account ledger.
// Installment sales keep a single top-level row carrying TotalInstallments
// metadata; there is no separate parent row on the customer side (the
// supplier ledger uses the opposite convention; see SupplierAccountEntry).
// Only PromisedDate and PaidDate may be set after creation.
type CustomerAccountEntry struct {
	ID                int64      `json:"id" db:"id"`
	TenantID          string     `json:"tenant_id" db:"tenant_id"`
	CustomerID        int64      `json:"customer_id" db:"customer_id"`
	TransactionType   string     `json:"transaction_type" db:"transaction_type"`
	Amount            int64      `json:"amount" db:"amount"`
	TransactionDate   time.Time  `json:"transaction_date" db:"transaction_date"`
	DueDate           *time.Time `json:"due_date,omitempty" db:"due_date"`
	PromisedDate      *time.Time `json:"promised_date,omitempty" db:"promised_date"`
	PaidDate          *time.Time `json:"paid_date,omitempty" db:"paid_date"`
	TotalInstallments int        `json:"total_installments" db:"total_installments"`
	InstallmentNumber int        `json:"installment_number" db:"installment_number"`
	PaymentMethod     string     `json:"payment_method,omitempty" db:"payment_method"`
	SaleID            *string    `json:"sale_id,omitempty" db:"sale_id"`
	Reference         string     `json:"reference,omitempty" db:"reference"`
	Notes             string     `json:"notes,omitempty" db:"notes"`
	CreatedBy         *int64     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// EffectiveDueDate prefers a renegotiated promised date over the original due
// date when deciding whether an entry is overdue.
func (e *CustomerAccountEntry) EffectiveDueDate() *time.Time {
	if e.PromisedDate != nil {
		return e.PromisedDate
	}
	return e.DueDate
}

// IsOverdue reports whether a debt entry is unpaid past its effective due date.
func (e *CustomerAccountEntry) IsOverdue(asOf time.Time) bool {
	if e.TransactionType != AccountEntrySale || e.PaidDate != nil {
		return false
	}
	due := e.EffectiveDueDate()
	return due != nil && due.Before(asOf)
}

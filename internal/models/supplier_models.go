package models

import "time"

// Supplier is a vendor the business buys from on account.
type Supplier struct {
	ID               string    `json:"id" db:"id"`
	TenantID         string    `json:"tenant_id" db:"tenant_id"`
	Name             string    `json:"name" db:"name" binding:"required"`
	TaxID            string    `json:"tax_id,omitempty" db:"tax_id"` // RUC/CNPJ
	Email            string    `json:"email,omitempty" db:"email"`
	Phone            string    `json:"phone,omitempty" db:"phone"`
	Address          string    `json:"address,omitempty" db:"address"`
	PaymentTermsDays int       `json:"payment_terms_days" db:"payment_terms_days"`
	CreditLimit      int64     `json:"credit_limit" db:"credit_limit"`
	ContactPerson    string    `json:"contact_person,omitempty" db:"contact_person"`
	Notes            string    `json:"notes,omitempty" db:"notes"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedBy        *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SupplierAccountEntry is one immutable row of the accounts-payable ledger.
//
// Installment purchases follow the supplier-side convention: a parent row
// with InstallmentNumber 0 records the full amount for reference, and N child
// rows (InstallmentNumber 1..N) carry the actual obligations with staggered
// due dates. Parent rows are excluded from balance sums; only children are
// "active". Purchases are positive, payments negative; only PaidDate may be
// set after creation.
type SupplierAccountEntry struct {
	ID                  string     `json:"id" db:"id"`
	TenantID            string     `json:"tenant_id" db:"tenant_id"`
	SupplierID          string     `json:"supplier_id" db:"supplier_id"`
	TransactionType     string     `json:"transaction_type" db:"transaction_type"`
	Amount              int64      `json:"amount" db:"amount"`
	TransactionDate     time.Time  `json:"transaction_date" db:"transaction_date"`
	DueDate             *time.Time `json:"due_date,omitempty" db:"due_date"`
	PaidDate            *time.Time `json:"paid_date,omitempty" db:"paid_date"`
	TotalInstallments   int        `json:"total_installments" db:"total_installments"`
	InstallmentNumber   int        `json:"installment_number" db:"installment_number"`
	ParentTransactionID *string    `json:"parent_transaction_id,omitempty" db:"parent_transaction_id"`
	RelatedPurchaseID   *string    `json:"related_purchase_id,omitempty" db:"related_purchase_id"`
	PaymentMethod       string     `json:"payment_method,omitempty" db:"payment_method"`
	InvoiceNumber       string     `json:"invoice_number,omitempty" db:"invoice_number"`
	Reference           string     `json:"reference,omitempty" db:"reference"`
	Notes               string     `json:"notes,omitempty" db:"notes"`
	CreatedBy           *int64     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// IsInstallmentParent reports whether this row is the non-counted header of
// an installment plan.
func (e *SupplierAccountEntry) IsInstallmentParent() bool {
	return e.TransactionType == AccountEntryPurchase && e.InstallmentNumber == 0
}

// IsOverdue reports whether a purchase obligation is unpaid past its due date.
func (e *SupplierAccountEntry) IsOverdue(asOf time.Time) bool {
	if e.TransactionType != AccountEntryPurchase || e.PaidDate != nil || e.InstallmentNumber == 0 {
		return false
	}
	return e.DueDate != nil && e.DueDate.Before(asOf)
}

// DaysOverdue returns how many days past due the obligation is, or 0.
func (e *SupplierAccountEntry) DaysOverdue(asOf time.Time) int {
	if !e.IsOverdue(asOf) {
		return 0
	}
	return int(asOf.Sub(*e.DueDate).Hours() / 24)
}

// PayableSummary aggregates a tenant's accounts payable for the dashboard.
type PayableSummary struct {
	TotalDebt             int64 `json:"total_debt"`
	OverdueDebt           int64 `json:"overdue_debt"`
	DueThisWeek           int64 `json:"due_this_week"`
	DueThisMonth          int64 `json:"due_this_month"`
	SuppliersCount        int   `json:"suppliers_count"`
	OverdueSuppliersCount int   `json:"overdue_suppliers_count"`
}

package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
	"strings"
	"time"
)

// SupplierRepository defines the interface for supplier and accounts-payable
// database operations.
type SupplierRepository interface {
	CreateSupplier(tenantID string, supplier *models.Supplier) error
	GetSupplierByID(tenantID string, id string) (*models.Supplier, error)
	GetSuppliers(tenantID string, search *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(tenantID string, supplier *models.Supplier) error
	DeactivateSupplier(tenantID string, id string) error

	CreateAccountEntry(executor SQLExecutor, tenantID string, entry *models.SupplierAccountEntry) error
	GetAccountEntries(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error)
	GetAccountEntryByID(tenantID string, id string) (*models.SupplierAccountEntry, error)
	MarkEntryPaid(executor SQLExecutor, tenantID string, entryID string, paidDate time.Time) error
	// GetBalance sums the supplier's signed entries, excluding installment
	// parent rows (installment_number = 0 on a purchase with children).
	GetBalance(tenantID string, supplierID string) (int64, error)
	GetUnpaidPurchases(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error)
	GetPayableSummary(tenantID string, asOf time.Time) (*models.PayableSummary, error)
}

type supplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

const supplierColumns = `s.id, s.tenant_id, s.name, s.tax_id, s.email, s.phone, s.address,
	s.payment_terms_days, s.credit_limit, s.contact_person, s.notes, s.is_active,
	s.created_by, s.created_at, s.updated_at`

func scanSupplier(sc scanner) (*models.Supplier, error) {
	var s models.Supplier
	var createdBy sql.NullInt64
	if err := sc.Scan(
		&s.ID, &s.TenantID, &s.Name, &s.TaxID, &s.Email, &s.Phone, &s.Address,
		&s.PaymentTermsDays, &s.CreditLimit, &s.ContactPerson, &s.Notes, &s.IsActive,
		&createdBy, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		s.CreatedBy = &createdBy.Int64
	}
	return &s, nil
}

func (r *supplierRepository) CreateSupplier(tenantID string, supplier *models.Supplier) error {
	query := `INSERT INTO suppliers
	          (id, tenant_id, name, tax_id, email, phone, address, payment_terms_days,
	           credit_limit, contact_person, notes, is_active, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12, NOW(), NOW())
	          RETURNING created_at, updated_at`
	var createdBy sql.NullInt64
	if supplier.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *supplier.CreatedBy, Valid: true}
	}
	err := r.db.QueryRow(query,
		supplier.ID, tenantID, supplier.Name, supplier.TaxID, supplier.Email,
		supplier.Phone, supplier.Address, supplier.PaymentTermsDays,
		supplier.CreditLimit, supplier.ContactPerson, supplier.Notes, createdBy,
	).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("creating supplier %s", supplier.Name))
	}
	supplier.TenantID = tenantID
	supplier.IsActive = true
	return nil
}

func (r *supplierRepository) GetSupplierByID(tenantID string, id string) (*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers s WHERE s.tenant_id = $1 AND s.id = $2`
	s, err := scanSupplier(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: supplier with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting supplier %s: %v", ErrDatabaseError, id, err)
	}
	return s, nil
}

func (r *supplierRepository) GetSuppliers(tenantID string, search *string, page, pageSize int) ([]models.Supplier, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + supplierColumns + `, COUNT(*) OVER() AS total_count
	  FROM suppliers s`)

	conditions := []string{"s.tenant_id = $1", "s.is_active = TRUE"}
	args := []interface{}{tenantID}
	argCount := 2

	if search != nil && *search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.name ILIKE $%d OR s.tax_id ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*search+"%")
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY s.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	suppliers := []models.Supplier{}
	totalCount := 0
	for rows.Next() {
		var s models.Supplier
		var createdBy sql.NullInt64
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.Name, &s.TaxID, &s.Email, &s.Phone, &s.Address,
			&s.PaymentTermsDays, &s.CreditLimit, &s.ContactPerson, &s.Notes, &s.IsActive,
			&createdBy, &s.CreatedAt, &s.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		if createdBy.Valid {
			s.CreatedBy = &createdBy.Int64
		}
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating suppliers: %v", ErrDatabaseError, err)
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) UpdateSupplier(tenantID string, supplier *models.Supplier) error {
	query := `UPDATE suppliers SET
	            name = $1, tax_id = $2, email = $3, phone = $4, address = $5,
	            payment_terms_days = $6, credit_limit = $7, contact_person = $8,
	            notes = $9, updated_at = NOW()
	          WHERE tenant_id = $10 AND id = $11`
	result, err := r.db.Exec(query,
		supplier.Name, supplier.TaxID, supplier.Email, supplier.Phone, supplier.Address,
		supplier.PaymentTermsDays, supplier.CreditLimit, supplier.ContactPerson,
		supplier.Notes, tenantID, supplier.ID,
	)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("updating supplier %s", supplier.ID))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for supplier update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: supplier with ID %s", ErrNotFound, supplier.ID)
	}
	return nil
}

func (r *supplierRepository) DeactivateSupplier(tenantID string, id string) error {
	query := `UPDATE suppliers SET is_active = FALSE, updated_at = NOW()
	          WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.Exec(query, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: deactivating supplier %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for supplier deactivation: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: supplier with ID %s", ErrNotFound, id)
	}
	return nil
}

const supplierEntryColumns = `e.id, e.tenant_id, e.supplier_id, e.transaction_type, e.amount,
	e.transaction_date, e.due_date, e.paid_date, e.total_installments, e.installment_number,
	e.parent_transaction_id, e.related_purchase_id, e.payment_method, e.invoice_number,
	e.reference, e.notes, e.created_by, e.created_at, e.updated_at`

func scanSupplierEntry(sc scanner) (*models.SupplierAccountEntry, error) {
	var e models.SupplierAccountEntry
	var dueDate, paidDate sql.NullTime
	var parentID, relatedID sql.NullString
	var createdBy sql.NullInt64
	if err := sc.Scan(
		&e.ID, &e.TenantID, &e.SupplierID, &e.TransactionType, &e.Amount,
		&e.TransactionDate, &dueDate, &paidDate, &e.TotalInstallments, &e.InstallmentNumber,
		&parentID, &relatedID, &e.PaymentMethod, &e.InvoiceNumber,
		&e.Reference, &e.Notes, &createdBy, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dueDate.Valid {
		e.DueDate = &dueDate.Time
	}
	if paidDate.Valid {
		e.PaidDate = &paidDate.Time
	}
	if parentID.Valid {
		e.ParentTransactionID = &parentID.String
	}
	if relatedID.Valid {
		e.RelatedPurchaseID = &relatedID.String
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

func (r *supplierRepository) CreateAccountEntry(executor SQLExecutor, tenantID string, entry *models.SupplierAccountEntry) error {
	query := `INSERT INTO supplier_account_entries
	          (id, tenant_id, supplier_id, transaction_type, amount, transaction_date,
	           due_date, paid_date, total_installments, installment_number,
	           parent_transaction_id, related_purchase_id, payment_method, invoice_number,
	           reference, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	          RETURNING created_at`
	var dueDate, paidDate sql.NullTime
	if entry.DueDate != nil {
		dueDate = sql.NullTime{Time: *entry.DueDate, Valid: true}
	}
	if entry.PaidDate != nil {
		paidDate = sql.NullTime{Time: *entry.PaidDate, Valid: true}
	}
	var parentID, relatedID sql.NullString
	if entry.ParentTransactionID != nil {
		parentID = sql.NullString{String: *entry.ParentTransactionID, Valid: true}
	}
	if entry.RelatedPurchaseID != nil {
		relatedID = sql.NullString{String: *entry.RelatedPurchaseID, Valid: true}
	}
	var createdBy sql.NullInt64
	if entry.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *entry.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		entry.ID, tenantID, entry.SupplierID, entry.TransactionType, entry.Amount,
		entry.TransactionDate, dueDate, paidDate, entry.TotalInstallments, entry.InstallmentNumber,
		parentID, relatedID, entry.PaymentMethod, entry.InvoiceNumber,
		entry.Reference, entry.Notes, createdBy,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: creating supplier account entry: %v", ErrDatabaseError, err)
	}
	entry.TenantID = tenantID
	return nil
}

func (r *supplierRepository) GetAccountEntries(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error) {
	query := `SELECT ` + supplierEntryColumns + ` FROM supplier_account_entries e
	          WHERE e.tenant_id = $1 AND e.supplier_id = $2
	          ORDER BY e.transaction_date DESC, e.created_at DESC`
	rows, err := r.db.Query(query, tenantID, supplierID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting account entries for supplier %s: %v", ErrDatabaseError, supplierID, err)
	}
	defer rows.Close()

	entries := []models.SupplierAccountEntry{}
	for rows.Next() {
		e, err := scanSupplierEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning supplier account entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating supplier account entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *supplierRepository) GetAccountEntryByID(tenantID string, id string) (*models.SupplierAccountEntry, error) {
	query := `SELECT ` + supplierEntryColumns + ` FROM supplier_account_entries e
	          WHERE e.tenant_id = $1 AND e.id = $2`
	e, err := scanSupplierEntry(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: supplier account entry with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting supplier account entry %s: %v", ErrDatabaseError, id, err)
	}
	return e, nil
}

func (r *supplierRepository) MarkEntryPaid(executor SQLExecutor, tenantID string, entryID string, paidDate time.Time) error {
	query := `UPDATE supplier_account_entries SET paid_date = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, paidDate, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("%w: marking supplier entry %s paid: %v", ErrDatabaseError, entryID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for supplier paid date update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: supplier account entry with ID %s", ErrNotFound, entryID)
	}
	return nil
}

// Active rows are everything except installment parents: a purchase row with
// installment_number = 0 and children is only a header.
const activeSupplierEntries = `(e.transaction_type <> 'purchase' OR e.installment_number > 0
	OR e.total_installments <= 1)`

func (r *supplierRepository) GetBalance(tenantID string, supplierID string) (int64, error) {
	query := `SELECT COALESCE(SUM(e.amount), 0) FROM supplier_account_entries e
	          WHERE e.tenant_id = $1 AND e.supplier_id = $2 AND ` + activeSupplierEntries
	var balance int64
	if err := r.db.QueryRow(query, tenantID, supplierID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%w: getting balance for supplier %s: %v", ErrDatabaseError, supplierID, err)
	}
	return balance, nil
}

func (r *supplierRepository) GetUnpaidPurchases(tenantID string, supplierID string) ([]models.SupplierAccountEntry, error) {
	query := `SELECT ` + supplierEntryColumns + ` FROM supplier_account_entries e
	          WHERE e.tenant_id = $1 AND e.supplier_id = $2
	            AND e.transaction_type = $3 AND e.paid_date IS NULL
	            AND ` + activeSupplierEntries + `
	          ORDER BY e.due_date NULLS LAST, e.created_at`
	rows, err := r.db.Query(query, tenantID, supplierID, models.AccountEntryPurchase)
	if err != nil {
		return nil, fmt.Errorf("%w: getting unpaid purchases for supplier %s: %v", ErrDatabaseError, supplierID, err)
	}
	defer rows.Close()

	entries := []models.SupplierAccountEntry{}
	for rows.Next() {
		e, err := scanSupplierEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning unpaid purchase: %v", ErrDatabaseError, err)
		}
		entries = append(entries, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating unpaid purchases: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *supplierRepository) GetPayableSummary(tenantID string, asOf time.Time) (*models.PayableSummary, error) {
	query := `SELECT
	            COALESCE(SUM(e.amount), 0) AS total_debt,
	            COALESCE(SUM(e.amount) FILTER (WHERE e.due_date < $2), 0) AS overdue_debt,
	            COALESCE(SUM(e.amount) FILTER (WHERE e.due_date >= $2 AND e.due_date < $3), 0) AS due_this_week,
	            COALESCE(SUM(e.amount) FILTER (WHERE e.due_date >= $2 AND e.due_date < $4), 0) AS due_this_month,
	            COUNT(DISTINCT e.supplier_id) AS suppliers_count,
	            COUNT(DISTINCT e.supplier_id) FILTER (WHERE e.due_date < $2) AS overdue_suppliers_count
	          FROM supplier_account_entries e
	          WHERE e.tenant_id = $1
	            AND e.transaction_type = 'purchase' AND e.paid_date IS NULL
	            AND ` + activeSupplierEntries
	weekEnd := asOf.AddDate(0, 0, 7)
	monthEnd := asOf.AddDate(0, 1, 0)
	var s models.PayableSummary
	err := r.db.QueryRow(query, tenantID, asOf, weekEnd, monthEnd).Scan(
		&s.TotalDebt, &s.OverdueDebt, &s.DueThisWeek, &s.DueThisMonth,
		&s.SuppliersCount, &s.OverdueSuppliersCount,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: getting payable summary: %v", ErrDatabaseError, err)
	}
	return &s, nil
}

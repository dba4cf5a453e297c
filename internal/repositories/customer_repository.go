package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
	"strings"
	"time"
)

// CustomerRepository defines the interface for customer and customer-ledger
// database operations.
type CustomerRepository interface {
	CreateCustomer(tenantID string, customer *models.Customer) (int64, error)
	GetCustomerByID(tenantID string, id int64) (*models.Customer, error)
	GetCustomers(tenantID string, search *string, page, pageSize int) ([]models.Customer, int, error)
	GetCustomersWithDebt(tenantID string) ([]models.Customer, error)
	UpdateCustomer(tenantID string, customer *models.Customer) error
	DeactivateCustomer(tenantID string, id int64) error

	// AdjustBalance moves current_balance by delta atomically. It must run in
	// the same transaction as the ledger entry that justifies it.
	AdjustBalance(executor SQLExecutor, tenantID string, customerID int64, delta int64) error

	CreateAccountEntry(executor SQLExecutor, tenantID string, entry *models.CustomerAccountEntry) (int64, error)
	GetAccountEntries(tenantID string, customerID int64) ([]models.CustomerAccountEntry, error)
	GetAccountEntryByID(tenantID string, id int64) (*models.CustomerAccountEntry, error)
	SetPromisedDate(tenantID string, entryID int64, promised time.Time) error
	MarkEntryPaid(executor SQLExecutor, tenantID string, entryID int64, paidDate time.Time) error
	// GetOverdueEntries returns unpaid sale entries whose effective due date
	// (promised date when set, else due date) is before asOf.
	GetOverdueEntries(tenantID string, asOf time.Time) ([]models.CustomerAccountEntry, error)
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `c.id, c.tenant_id, c.name, c.tax_id, c.email, c.phone, c.mobile,
	c.address, c.city, c.customer_type, c.credit_limit, c.current_balance,
	c.is_active, c.notes, c.created_at, c.updated_at`

func scanCustomer(s scanner) (*models.Customer, error) {
	var c models.Customer
	if err := s.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Mobile,
		&c.Address, &c.City, &c.CustomerType, &c.CreditLimit, &c.CurrentBalance,
		&c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepository) CreateCustomer(tenantID string, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers
	          (tenant_id, name, tax_id, email, phone, mobile, address, city, customer_type,
	           credit_limit, current_balance, is_active, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, TRUE, $11, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		tenantID, customer.Name, customer.TaxID, customer.Email, customer.Phone,
		customer.Mobile, customer.Address, customer.City, customer.CustomerType,
		customer.CreditLimit, customer.Notes,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return 0, mapPQError(err, fmt.Sprintf("creating customer %s", customer.Name))
	}
	customer.TenantID = tenantID
	customer.IsActive = true
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(tenantID string, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers c WHERE c.tenant_id = $1 AND c.id = $2`
	c, err := scanCustomer(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: customer with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting customer %d: %v", ErrDatabaseError, id, err)
	}
	return c, nil
}

func (r *customerRepository) GetCustomers(tenantID string, search *string, page, pageSize int) ([]models.Customer, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count
	  FROM customers c`)

	conditions := []string{"c.tenant_id = $1", "c.is_active = TRUE"}
	args := []interface{}{tenantID}
	argCount := 2

	if search != nil && *search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.tax_id ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*search+"%")
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY c.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	totalCount := 0
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Mobile,
			&c.Address, &c.City, &c.CustomerType, &c.CreditLimit, &c.CurrentBalance,
			&c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customers: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) GetCustomersWithDebt(tenantID string) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers c
	          WHERE c.tenant_id = $1 AND c.current_balance > 0
	          ORDER BY c.current_balance DESC`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting customers with debt: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning customer with debt: %v", ErrDatabaseError, err)
		}
		customers = append(customers, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customers with debt: %v", ErrDatabaseError, err)
	}
	return customers, nil
}

func (r *customerRepository) UpdateCustomer(tenantID string, customer *models.Customer) error {
	query := `UPDATE customers SET
	            name = $1, tax_id = $2, email = $3, phone = $4, mobile = $5,
	            address = $6, city = $7, customer_type = $8, credit_limit = $9,
	            notes = $10, updated_at = NOW()
	          WHERE tenant_id = $11 AND id = $12`
	result, err := r.db.Exec(query,
		customer.Name, customer.TaxID, customer.Email, customer.Phone, customer.Mobile,
		customer.Address, customer.City, customer.CustomerType, customer.CreditLimit,
		customer.Notes, tenantID, customer.ID,
	)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("updating customer %d", customer.ID))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for customer update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: customer with ID %d", ErrNotFound, customer.ID)
	}
	return nil
}

func (r *customerRepository) DeactivateCustomer(tenantID string, id int64) error {
	query := `UPDATE customers SET is_active = FALSE, updated_at = NOW()
	          WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.Exec(query, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: deactivating customer %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for customer deactivation: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: customer with ID %d", ErrNotFound, id)
	}
	return nil
}

func (r *customerRepository) AdjustBalance(executor SQLExecutor, tenantID string, customerID int64, delta int64) error {
	query := `UPDATE customers SET current_balance = current_balance + $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, delta, tenantID, customerID)
	if err != nil {
		return fmt.Errorf("%w: adjusting balance for customer %d: %v", ErrDatabaseError, customerID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for balance adjustment: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: customer with ID %d", ErrNotFound, customerID)
	}
	return nil
}

const customerEntryColumns = `e.id, e.tenant_id, e.customer_id, e.transaction_type, e.amount,
	e.transaction_date, e.due_date, e.promised_date, e.paid_date,
	e.total_installments, e.installment_number, e.payment_method, e.sale_id,
	e.reference, e.notes, e.created_by, e.created_at, e.updated_at`

func scanCustomerEntry(s scanner) (*models.CustomerAccountEntry, error) {
	var e models.CustomerAccountEntry
	var dueDate, promisedDate, paidDate sql.NullTime
	var saleID sql.NullString
	var createdBy sql.NullInt64
	if err := s.Scan(
		&e.ID, &e.TenantID, &e.CustomerID, &e.TransactionType, &e.Amount,
		&e.TransactionDate, &dueDate, &promisedDate, &paidDate,
		&e.TotalInstallments, &e.InstallmentNumber, &e.PaymentMethod, &saleID,
		&e.Reference, &e.Notes, &createdBy, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dueDate.Valid {
		e.DueDate = &dueDate.Time
	}
	if promisedDate.Valid {
		e.PromisedDate = &promisedDate.Time
	}
	if paidDate.Valid {
		e.PaidDate = &paidDate.Time
	}
	if saleID.Valid {
		e.SaleID = &saleID.String
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

func (r *customerRepository) CreateAccountEntry(executor SQLExecutor, tenantID string, entry *models.CustomerAccountEntry) (int64, error) {
	query := `INSERT INTO customer_account_entries
	          (tenant_id, customer_id, transaction_type, amount, transaction_date,
	           due_date, promised_date, paid_date, total_installments, installment_number,
	           payment_method, sale_id, reference, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	          RETURNING id, created_at`
	var dueDate, promisedDate, paidDate sql.NullTime
	if entry.DueDate != nil {
		dueDate = sql.NullTime{Time: *entry.DueDate, Valid: true}
	}
	if entry.PromisedDate != nil {
		promisedDate = sql.NullTime{Time: *entry.PromisedDate, Valid: true}
	}
	if entry.PaidDate != nil {
		paidDate = sql.NullTime{Time: *entry.PaidDate, Valid: true}
	}
	var saleID sql.NullString
	if entry.SaleID != nil {
		saleID = sql.NullString{String: *entry.SaleID, Valid: true}
	}
	var createdBy sql.NullInt64
	if entry.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *entry.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		tenantID, entry.CustomerID, entry.TransactionType, entry.Amount, entry.TransactionDate,
		dueDate, promisedDate, paidDate, entry.TotalInstallments, entry.InstallmentNumber,
		entry.PaymentMethod, saleID, entry.Reference, entry.Notes, createdBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: creating customer account entry: %v", ErrDatabaseError, err)
	}
	entry.TenantID = tenantID
	return entry.ID, nil
}

func (r *customerRepository) GetAccountEntries(tenantID string, customerID int64) ([]models.CustomerAccountEntry, error) {
	query := `SELECT ` + customerEntryColumns + ` FROM customer_account_entries e
	          WHERE e.tenant_id = $1 AND e.customer_id = $2
	          ORDER BY e.transaction_date DESC, e.id DESC`
	rows, err := r.db.Query(query, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting account entries for customer %d: %v", ErrDatabaseError, customerID, err)
	}
	defer rows.Close()

	entries := []models.CustomerAccountEntry{}
	for rows.Next() {
		e, err := scanCustomerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning customer account entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer account entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *customerRepository) GetAccountEntryByID(tenantID string, id int64) (*models.CustomerAccountEntry, error) {
	query := `SELECT ` + customerEntryColumns + ` FROM customer_account_entries e
	          WHERE e.tenant_id = $1 AND e.id = $2`
	e, err := scanCustomerEntry(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: account entry with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting account entry %d: %v", ErrDatabaseError, id, err)
	}
	return e, nil
}

func (r *customerRepository) SetPromisedDate(tenantID string, entryID int64, promised time.Time) error {
	query := `UPDATE customer_account_entries SET promised_date = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3 AND paid_date IS NULL`
	result, err := r.db.Exec(query, promised, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("%w: setting promised date on entry %d: %v", ErrDatabaseError, entryID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for promised date update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: unpaid account entry with ID %d", ErrNotFound, entryID)
	}
	return nil
}

func (r *customerRepository) MarkEntryPaid(executor SQLExecutor, tenantID string, entryID int64, paidDate time.Time) error {
	query := `UPDATE customer_account_entries SET paid_date = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, paidDate, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("%w: marking entry %d paid: %v", ErrDatabaseError, entryID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for paid date update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: account entry with ID %d", ErrNotFound, entryID)
	}
	return nil
}

func (r *customerRepository) GetOverdueEntries(tenantID string, asOf time.Time) ([]models.CustomerAccountEntry, error) {
	query := `SELECT ` + customerEntryColumns + ` FROM customer_account_entries e
	          WHERE e.tenant_id = $1
	            AND e.transaction_type = $2
	            AND e.paid_date IS NULL
	            AND COALESCE(e.promised_date, e.due_date) < $3
	          ORDER BY COALESCE(e.promised_date, e.due_date)`
	rows, err := r.db.Query(query, tenantID, models.AccountEntrySale, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: getting overdue entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.CustomerAccountEntry{}
	for rows.Next() {
		e, err := scanCustomerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning overdue entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating overdue entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

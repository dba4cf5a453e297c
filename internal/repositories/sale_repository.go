package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale header/item database operations.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, tenantID string, sale *models.Sale) error
	CreateSaleItem(executor SQLExecutor, tenantID string, item *models.SaleItem) (int64, error)
	GetSaleByID(tenantID string, id string) (*models.Sale, error)
	// GetSaleByIDForUpdate locks the sale header inside the caller's
	// transaction so concurrent cancellations serialize.
	GetSaleByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Sale, error)
	GetSaleItems(executor SQLExecutor, tenantID string, saleID string) ([]models.SaleItem, error)
	GetSales(tenantID string, filters models.SaleFilters) ([]models.Sale, int, error)
	// GetLastInvoiceNumber returns the lexicographically greatest invoice
	// number for the tenant, or "" when no sales exist.
	GetLastInvoiceNumber(executor SQLExecutor, tenantID string) (string, error)
	UpdateSaleStatus(executor SQLExecutor, tenantID string, id string, status string) error
	// CashSalesTotalsByCurrency sums paid_amount_original per payment
	// currency over cash-method, non-cancelled sales in [from, to).
	CashSalesTotalsByCurrency(tenantID string, from time.Time, to time.Time) (models.CashAmounts, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, tenantID string, sale *models.Sale) error {
	query := `INSERT INTO sales
	          (id, tenant_id, invoice_number, customer_id, sale_date, subtotal, tax_amount,
	           discount_amount, total_amount, payment_method, paid_amount, change_amount,
	           currency_paid, paid_amount_original, exchange_rate_usd, exchange_rate_brl,
	           pix_reference, status, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
	          RETURNING created_at, updated_at`
	var customerID sql.NullInt64
	if sale.CustomerID != nil {
		customerID = sql.NullInt64{Int64: *sale.CustomerID, Valid: true}
	}
	var createdBy sql.NullInt64
	if sale.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *sale.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		sale.ID, tenantID, sale.InvoiceNumber, customerID, sale.SaleDate,
		sale.Subtotal, sale.TaxAmount, sale.DiscountAmount, sale.TotalAmount,
		sale.PaymentMethod, sale.PaidAmount, sale.ChangeAmount,
		sale.CurrencyPaid, sale.PaidAmountOriginal, sale.ExchangeRateUSD, sale.ExchangeRateBRL,
		sale.PixReference, sale.Status, sale.Notes, createdBy,
	).Scan(&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("creating sale %s", sale.InvoiceNumber))
	}
	sale.TenantID = tenantID
	return nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, tenantID string, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items
	          (tenant_id, sale_id, product_id, quantity, unit_price, discount_percent,
	           tax_type, discount_amount, subtotal, tax_amount, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	          RETURNING id, created_at`
	err := executor.QueryRow(query,
		tenantID, item.SaleID, item.ProductID, item.Quantity, item.UnitPrice,
		item.DiscountPercent, item.TaxType, item.DiscountAmount, item.Subtotal, item.TaxAmount,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	item.TenantID = tenantID
	return item.ID, nil
}

const saleColumns = `s.id, s.tenant_id, s.invoice_number, s.customer_id, s.sale_date,
	s.subtotal, s.tax_amount, s.discount_amount, s.total_amount, s.payment_method,
	s.paid_amount, s.change_amount, s.currency_paid, s.paid_amount_original,
	s.exchange_rate_usd, s.exchange_rate_brl, s.pix_reference, s.status, s.notes,
	s.created_by, s.created_at, s.updated_at`

func scanSale(s scanner) (*models.Sale, error) {
	var sale models.Sale
	var customerID, createdBy sql.NullInt64
	if err := s.Scan(
		&sale.ID, &sale.TenantID, &sale.InvoiceNumber, &customerID, &sale.SaleDate,
		&sale.Subtotal, &sale.TaxAmount, &sale.DiscountAmount, &sale.TotalAmount,
		&sale.PaymentMethod, &sale.PaidAmount, &sale.ChangeAmount, &sale.CurrencyPaid,
		&sale.PaidAmountOriginal, &sale.ExchangeRateUSD, &sale.ExchangeRateBRL,
		&sale.PixReference, &sale.Status, &sale.Notes, &createdBy, &sale.CreatedAt, &sale.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = &customerID.Int64
	}
	if createdBy.Valid {
		sale.CreatedBy = &createdBy.Int64
	}
	return &sale, nil
}

func (r *saleRepository) GetSaleByID(tenantID string, id string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales s WHERE s.tenant_id = $1 AND s.id = $2`
	sale, err := scanSale(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: sale with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting sale %s: %v", ErrDatabaseError, id, err)
	}
	items, err := r.GetSaleItems(r.db, tenantID, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (r *saleRepository) GetSaleByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales s
	          WHERE s.tenant_id = $1 AND s.id = $2 FOR UPDATE`
	sale, err := scanSale(executor.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: sale with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: locking sale %s: %v", ErrDatabaseError, id, err)
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItems(executor SQLExecutor, tenantID string, saleID string) ([]models.SaleItem, error) {
	query := `SELECT si.id, si.tenant_id, si.sale_id, si.product_id, si.quantity,
	            si.unit_price, si.discount_percent, si.tax_type, si.discount_amount,
	            si.subtotal, si.tax_amount, si.created_at,
	            p.code AS product_code, p.name AS product_name
	          FROM sale_items si
	          JOIN products p ON si.product_id = p.id
	          WHERE si.tenant_id = $1 AND si.sale_id = $2
	          ORDER BY si.id`
	rows, err := executor.Query(query, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting sale items for %s: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var item models.SaleItem
		var productCode, productName string
		if err := rows.Scan(
			&item.ID, &item.TenantID, &item.SaleID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.DiscountPercent, &item.TaxType, &item.DiscountAmount,
			&item.Subtotal, &item.TaxAmount, &item.CreatedAt,
			&productCode, &productName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		item.Product = &models.Product{ID: item.ProductID, Code: productCode, Name: productName}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(tenantID string, filters models.SaleFilters) ([]models.Sale, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + saleColumns + `,
	    c.name AS customer_name,
	    COUNT(*) OVER() AS total_count
	  FROM sales s
	  LEFT JOIN customers c ON s.customer_id = c.id`)

	conditions := []string{"s.tenant_id = $1"}
	args := []interface{}{tenantID}
	argCount := 2

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("s.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("s.payment_method = $%d", argCount))
		args = append(args, *filters.PaymentMethod)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		conditions = append(conditions, fmt.Sprintf("s.sale_date::date = $%d", argCount))
		args = append(args, *filters.Date)
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY s.sale_date DESC, s.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	totalCount := 0
	for rows.Next() {
		var sale models.Sale
		var customerID, createdBy sql.NullInt64
		var customerName sql.NullString
		if err := rows.Scan(
			&sale.ID, &sale.TenantID, &sale.InvoiceNumber, &customerID, &sale.SaleDate,
			&sale.Subtotal, &sale.TaxAmount, &sale.DiscountAmount, &sale.TotalAmount,
			&sale.PaymentMethod, &sale.PaidAmount, &sale.ChangeAmount, &sale.CurrencyPaid,
			&sale.PaidAmountOriginal, &sale.ExchangeRateUSD, &sale.ExchangeRateBRL,
			&sale.PixReference, &sale.Status, &sale.Notes, &createdBy, &sale.CreatedAt, &sale.UpdatedAt,
			&customerName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		if customerID.Valid {
			sale.CustomerID = &customerID.Int64
			if customerName.Valid {
				sale.Customer = &models.Customer{ID: customerID.Int64, Name: customerName.String}
			}
		}
		if createdBy.Valid {
			sale.CreatedBy = &createdBy.Int64
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) GetLastInvoiceNumber(executor SQLExecutor, tenantID string) (string, error) {
	query := `SELECT invoice_number FROM sales
	          WHERE tenant_id = $1
	          ORDER BY invoice_number DESC
	          LIMIT 1`
	var invoiceNumber string
	err := executor.QueryRow(query, tenantID).Scan(&invoiceNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("%w: getting last invoice number: %v", ErrDatabaseError, err)
	}
	return invoiceNumber, nil
}

func (r *saleRepository) UpdateSaleStatus(executor SQLExecutor, tenantID string, id string, status string) error {
	query := `UPDATE sales SET status = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, status, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: updating sale status: %v", ErrDatabaseError, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for sale status update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: sale with ID %s", ErrNotFound, id)
	}
	return nil
}

func (r *saleRepository) CashSalesTotalsByCurrency(tenantID string, from time.Time, to time.Time) (models.CashAmounts, error) {
	query := `SELECT currency_paid, COALESCE(SUM(paid_amount_original), 0)
	          FROM sales
	          WHERE tenant_id = $1 AND payment_method = $2 AND status <> $3
	            AND sale_date >= $4 AND sale_date < $5
	          GROUP BY currency_paid`
	rows, err := r.db.Query(query, tenantID, models.PaymentMethodCash, models.SaleStatusCancelled, from, to)
	if err != nil {
		return models.CashAmounts{}, fmt.Errorf("%w: summing cash sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	totals := models.CashAmounts{}
	for rows.Next() {
		var currency string
		var amount decimal.Decimal
		if err := rows.Scan(&currency, &amount); err != nil {
			return models.CashAmounts{}, fmt.Errorf("%w: scanning cash sales total: %v", ErrDatabaseError, err)
		}
		switch currency {
		case models.CurrencyUSD:
			totals.USD = amount
		case models.CurrencyBRL:
			totals.BRL = amount
		default:
			totals.PYG = totals.PYG.Add(amount)
		}
	}
	if err = rows.Err(); err != nil {
		return models.CashAmounts{}, fmt.Errorf("%w: iterating cash sales totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
)

// QuoteRepository defines the interface for quote and order database operations.
type QuoteRepository interface {
	CreateQuote(executor SQLExecutor, tenantID string, quote *models.Quote) error
	CreateQuoteItem(executor SQLExecutor, tenantID string, item *models.QuoteItem) (int64, error)
	GetQuoteByID(tenantID string, id string) (*models.Quote, error)
	GetQuoteByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Quote, error)
	GetQuotes(tenantID string, status *string, page, pageSize int) ([]models.Quote, int, error)
	GetLastQuoteNumber(executor SQLExecutor, tenantID string) (string, error)
	UpdateQuoteStatus(executor SQLExecutor, tenantID string, id string, status string) error

	CreateOrder(executor SQLExecutor, tenantID string, order *models.Order) error
	CreateOrderItem(executor SQLExecutor, tenantID string, item *models.OrderItem) (int64, error)
	GetOrderByID(tenantID string, id string) (*models.Order, error)
	GetOrderByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Order, error)
	GetOrderItems(executor SQLExecutor, tenantID string, orderID string) ([]models.OrderItem, error)
	GetOrders(tenantID string, status *string, page, pageSize int) ([]models.Order, int, error)
	GetLastOrderNumber(executor SQLExecutor, tenantID string) (string, error)
	UpdateOrderStatus(executor SQLExecutor, tenantID string, id string, status string) error
	// SetOrderSale records the sale generated from a completed order.
	SetOrderSale(executor SQLExecutor, tenantID string, orderID string, saleID string) error
}

type quoteRepository struct {
	db *sql.DB
}

// NewQuoteRepository creates a new instance of QuoteRepository.
func NewQuoteRepository(db *sql.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

const quoteColumns = `q.id, q.tenant_id, q.quote_number, q.customer_id, q.quote_date, q.valid_until,
	q.subtotal, q.tax_amount, q.total_amount, q.status, q.notes, q.created_by, q.created_at, q.updated_at`

func scanQuote(s scanner) (*models.Quote, error) {
	var q models.Quote
	var customerID, createdBy sql.NullInt64
	var validUntil sql.NullTime
	if err := s.Scan(
		&q.ID, &q.TenantID, &q.QuoteNumber, &customerID, &q.QuoteDate, &validUntil,
		&q.Subtotal, &q.TaxAmount, &q.TotalAmount, &q.Status, &q.Notes, &createdBy,
		&q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerID.Valid {
		q.CustomerID = &customerID.Int64
	}
	if validUntil.Valid {
		q.ValidUntil = &validUntil.Time
	}
	if createdBy.Valid {
		q.CreatedBy = &createdBy.Int64
	}
	return &q, nil
}

func (r *quoteRepository) CreateQuote(executor SQLExecutor, tenantID string, quote *models.Quote) error {
	query := `INSERT INTO quotes
	          (id, tenant_id, quote_number, customer_id, quote_date, valid_until,
	           subtotal, tax_amount, total_amount, status, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	          RETURNING created_at, updated_at`
	var customerID sql.NullInt64
	if quote.CustomerID != nil {
		customerID = sql.NullInt64{Int64: *quote.CustomerID, Valid: true}
	}
	var validUntil sql.NullTime
	if quote.ValidUntil != nil {
		validUntil = sql.NullTime{Time: *quote.ValidUntil, Valid: true}
	}
	var createdBy sql.NullInt64
	if quote.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *quote.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		quote.ID, tenantID, quote.QuoteNumber, customerID, quote.QuoteDate, validUntil,
		quote.Subtotal, quote.TaxAmount, quote.TotalAmount, quote.Status, quote.Notes, createdBy,
	).Scan(&quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("creating quote %s", quote.QuoteNumber))
	}
	quote.TenantID = tenantID
	return nil
}

func (r *quoteRepository) CreateQuoteItem(executor SQLExecutor, tenantID string, item *models.QuoteItem) (int64, error) {
	query := `INSERT INTO quote_items
	          (tenant_id, quote_id, product_id, quantity, unit_price, discount_percent,
	           tax_type, discount_amount, subtotal, tax_amount)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	err := executor.QueryRow(query,
		tenantID, item.QuoteID, item.ProductID, item.Quantity, item.UnitPrice,
		item.DiscountPercent, item.TaxType, item.DiscountAmount, item.Subtotal, item.TaxAmount,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating quote item: %v", ErrDatabaseError, err)
	}
	item.TenantID = tenantID
	return item.ID, nil
}

func (r *quoteRepository) GetQuoteByID(tenantID string, id string) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q WHERE q.tenant_id = $1 AND q.id = $2`
	quote, err := scanQuote(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: quote with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting quote %s: %v", ErrDatabaseError, id, err)
	}
	items, err := r.getQuoteItems(r.db, tenantID, id)
	if err != nil {
		return nil, err
	}
	quote.Items = items
	return quote, nil
}

func (r *quoteRepository) GetQuoteByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes q
	          WHERE q.tenant_id = $1 AND q.id = $2 FOR UPDATE`
	quote, err := scanQuote(executor.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: quote with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: locking quote %s: %v", ErrDatabaseError, id, err)
	}
	items, err := r.getQuoteItems(executor, tenantID, id)
	if err != nil {
		return nil, err
	}
	quote.Items = items
	return quote, nil
}

func (r *quoteRepository) getQuoteItems(executor SQLExecutor, tenantID string, quoteID string) ([]models.QuoteItem, error) {
	query := `SELECT qi.id, qi.tenant_id, qi.quote_id, qi.product_id, qi.quantity,
	            qi.unit_price, qi.discount_percent, qi.tax_type, qi.discount_amount,
	            qi.subtotal, qi.tax_amount,
	            p.code AS product_code, p.name AS product_name
	          FROM quote_items qi
	          JOIN products p ON qi.product_id = p.id
	          WHERE qi.tenant_id = $1 AND qi.quote_id = $2
	          ORDER BY qi.id`
	rows, err := executor.Query(query, tenantID, quoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting quote items for %s: %v", ErrDatabaseError, quoteID, err)
	}
	defer rows.Close()

	items := []models.QuoteItem{}
	for rows.Next() {
		var item models.QuoteItem
		var productCode, productName string
		if err := rows.Scan(
			&item.ID, &item.TenantID, &item.QuoteID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.DiscountPercent, &item.TaxType, &item.DiscountAmount,
			&item.Subtotal, &item.TaxAmount,
			&productCode, &productName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning quote item: %v", ErrDatabaseError, err)
		}
		item.Product = &models.Product{ID: item.ProductID, Code: productCode, Name: productName}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating quote items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *quoteRepository) GetQuotes(tenantID string, status *string, page, pageSize int) ([]models.Quote, int, error) {
	query := `SELECT ` + quoteColumns + `, c.name AS customer_name, COUNT(*) OVER() AS total_count
	          FROM quotes q
	          LEFT JOIN customers c ON q.customer_id = c.id
	          WHERE q.tenant_id = $1 AND ($2::text IS NULL OR q.status = $2)
	          ORDER BY q.quote_date DESC, q.created_at DESC
	          LIMIT $3 OFFSET $4`
	var statusArg sql.NullString
	if status != nil && *status != "" {
		statusArg = sql.NullString{String: *status, Valid: true}
	}
	rows, err := r.db.Query(query, tenantID, statusArg, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting quotes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	quotes := []models.Quote{}
	totalCount := 0
	for rows.Next() {
		var q models.Quote
		var customerID, createdBy sql.NullInt64
		var validUntil sql.NullTime
		var customerName sql.NullString
		if err := rows.Scan(
			&q.ID, &q.TenantID, &q.QuoteNumber, &customerID, &q.QuoteDate, &validUntil,
			&q.Subtotal, &q.TaxAmount, &q.TotalAmount, &q.Status, &q.Notes, &createdBy,
			&q.CreatedAt, &q.UpdatedAt, &customerName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning quote: %v", ErrDatabaseError, err)
		}
		if customerID.Valid {
			q.CustomerID = &customerID.Int64
			if customerName.Valid {
				q.Customer = &models.Customer{ID: customerID.Int64, Name: customerName.String}
			}
		}
		if validUntil.Valid {
			q.ValidUntil = &validUntil.Time
		}
		if createdBy.Valid {
			q.CreatedBy = &createdBy.Int64
		}
		quotes = append(quotes, q)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating quotes: %v", ErrDatabaseError, err)
	}
	return quotes, totalCount, nil
}

func (r *quoteRepository) GetLastQuoteNumber(executor SQLExecutor, tenantID string) (string, error) {
	query := `SELECT quote_number FROM quotes WHERE tenant_id = $1
	          ORDER BY quote_number DESC LIMIT 1`
	var number string
	err := executor.QueryRow(query, tenantID).Scan(&number)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("%w: getting last quote number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

func (r *quoteRepository) UpdateQuoteStatus(executor SQLExecutor, tenantID string, id string, status string) error {
	query := `UPDATE quotes SET status = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, status, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: updating quote status: %v", ErrDatabaseError, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for quote status update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: quote with ID %s", ErrNotFound, id)
	}
	return nil
}

const orderColumns = `o.id, o.tenant_id, o.order_number, o.quote_id, o.customer_id, o.order_date,
	o.subtotal, o.tax_amount, o.total_amount, o.status, o.sale_id, o.notes,
	o.created_by, o.created_at, o.updated_at`

func scanOrder(s scanner) (*models.Order, error) {
	var o models.Order
	var quoteID, saleID sql.NullString
	var customerID, createdBy sql.NullInt64
	if err := s.Scan(
		&o.ID, &o.TenantID, &o.OrderNumber, &quoteID, &customerID, &o.OrderDate,
		&o.Subtotal, &o.TaxAmount, &o.TotalAmount, &o.Status, &saleID, &o.Notes,
		&createdBy, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if quoteID.Valid {
		o.QuoteID = &quoteID.String
	}
	if saleID.Valid {
		o.SaleID = &saleID.String
	}
	if customerID.Valid {
		o.CustomerID = &customerID.Int64
	}
	if createdBy.Valid {
		o.CreatedBy = &createdBy.Int64
	}
	return &o, nil
}

func (r *quoteRepository) CreateOrder(executor SQLExecutor, tenantID string, order *models.Order) error {
	query := `INSERT INTO orders
	          (id, tenant_id, order_number, quote_id, customer_id, order_date,
	           subtotal, tax_amount, total_amount, status, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	          RETURNING created_at, updated_at`
	var quoteID sql.NullString
	if order.QuoteID != nil {
		quoteID = sql.NullString{String: *order.QuoteID, Valid: true}
	}
	var customerID, createdBy sql.NullInt64
	if order.CustomerID != nil {
		customerID = sql.NullInt64{Int64: *order.CustomerID, Valid: true}
	}
	if order.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *order.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		order.ID, tenantID, order.OrderNumber, quoteID, customerID, order.OrderDate,
		order.Subtotal, order.TaxAmount, order.TotalAmount, order.Status, order.Notes, createdBy,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("creating order %s", order.OrderNumber))
	}
	order.TenantID = tenantID
	return nil
}

func (r *quoteRepository) CreateOrderItem(executor SQLExecutor, tenantID string, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	          (tenant_id, order_id, product_id, quantity, unit_price, discount_percent,
	           tax_type, discount_amount, subtotal, tax_amount)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	err := executor.QueryRow(query,
		tenantID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
		item.DiscountPercent, item.TaxType, item.DiscountAmount, item.Subtotal, item.TaxAmount,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	item.TenantID = tenantID
	return item.ID, nil
}

func (r *quoteRepository) GetOrderByID(tenantID string, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.tenant_id = $1 AND o.id = $2`
	order, err := scanOrder(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: order with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting order %s: %v", ErrDatabaseError, id, err)
	}
	items, err := r.GetOrderItems(r.db, tenantID, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *quoteRepository) GetOrderByIDForUpdate(executor SQLExecutor, tenantID string, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o
	          WHERE o.tenant_id = $1 AND o.id = $2 FOR UPDATE`
	order, err := scanOrder(executor.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: order with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: locking order %s: %v", ErrDatabaseError, id, err)
	}
	items, err := r.GetOrderItems(executor, tenantID, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *quoteRepository) GetOrderItems(executor SQLExecutor, tenantID string, orderID string) ([]models.OrderItem, error) {
	query := `SELECT oi.id, oi.tenant_id, oi.order_id, oi.product_id, oi.quantity,
	            oi.unit_price, oi.discount_percent, oi.tax_type, oi.discount_amount,
	            oi.subtotal, oi.tax_amount,
	            p.code AS product_code, p.name AS product_name
	          FROM order_items oi
	          JOIN products p ON oi.product_id = p.id
	          WHERE oi.tenant_id = $1 AND oi.order_id = $2
	          ORDER BY oi.id`
	rows, err := executor.Query(query, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order items for %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var productCode, productName string
		if err := rows.Scan(
			&item.ID, &item.TenantID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.DiscountPercent, &item.TaxType, &item.DiscountAmount,
			&item.Subtotal, &item.TaxAmount,
			&productCode, &productName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		item.Product = &models.Product{ID: item.ProductID, Code: productCode, Name: productName}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *quoteRepository) GetOrders(tenantID string, status *string, page, pageSize int) ([]models.Order, int, error) {
	query := `SELECT ` + orderColumns + `, c.name AS customer_name, COUNT(*) OVER() AS total_count
	          FROM orders o
	          LEFT JOIN customers c ON o.customer_id = c.id
	          WHERE o.tenant_id = $1 AND ($2::text IS NULL OR o.status = $2)
	          ORDER BY o.order_date DESC, o.created_at DESC
	          LIMIT $3 OFFSET $4`
	var statusArg sql.NullString
	if status != nil && *status != "" {
		statusArg = sql.NullString{String: *status, Valid: true}
	}
	rows, err := r.db.Query(query, tenantID, statusArg, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	totalCount := 0
	for rows.Next() {
		var o models.Order
		var quoteID, saleID, customerName sql.NullString
		var customerID, createdBy sql.NullInt64
		if err := rows.Scan(
			&o.ID, &o.TenantID, &o.OrderNumber, &quoteID, &customerID, &o.OrderDate,
			&o.Subtotal, &o.TaxAmount, &o.TotalAmount, &o.Status, &saleID, &o.Notes,
			&createdBy, &o.CreatedAt, &o.UpdatedAt, &customerName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if quoteID.Valid {
			o.QuoteID = &quoteID.String
		}
		if saleID.Valid {
			o.SaleID = &saleID.String
		}
		if customerID.Valid {
			o.CustomerID = &customerID.Int64
			if customerName.Valid {
				o.Customer = &models.Customer{ID: customerID.Int64, Name: customerName.String}
			}
		}
		if createdBy.Valid {
			o.CreatedBy = &createdBy.Int64
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *quoteRepository) GetLastOrderNumber(executor SQLExecutor, tenantID string) (string, error) {
	query := `SELECT order_number FROM orders WHERE tenant_id = $1
	          ORDER BY order_number DESC LIMIT 1`
	var number string
	err := executor.QueryRow(query, tenantID).Scan(&number)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("%w: getting last order number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

func (r *quoteRepository) UpdateOrderStatus(executor SQLExecutor, tenantID string, id string, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, status, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: updating order status: %v", ErrDatabaseError, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for order status update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order with ID %s", ErrNotFound, id)
	}
	return nil
}

func (r *quoteRepository) SetOrderSale(executor SQLExecutor, tenantID string, orderID string, saleID string) error {
	query := `UPDATE orders SET sale_id = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, saleID, tenantID, orderID)
	if err != nil {
		return fmt.Errorf("%w: linking sale to order %s: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for order sale link: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order with ID %s", ErrNotFound, orderID)
	}
	return nil
}

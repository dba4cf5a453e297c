package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
	"strings"
)

// ProductRepository defines the interface for product and category database operations.
// Every method takes the tenant ID explicitly and scopes its queries to it.
type ProductRepository interface {
	CreateCategory(tenantID string, category *models.Category) (int64, error)
	GetCategories(tenantID string) ([]models.Category, error)

	CreateProduct(tenantID string, product *models.Product) (int64, error)
	GetProductByID(tenantID string, id int64) (*models.Product, error)
	// GetProductByIDForUpdate locks the product row for the duration of the
	// caller's transaction. Used by stock mutations to serialize the
	// read-modify-write on current_stock.
	GetProductByIDForUpdate(executor SQLExecutor, tenantID string, id int64) (*models.Product, error)
	GetProducts(tenantID string, filters models.ProductFilters) ([]models.Product, int, error)
	GetLowStockProducts(tenantID string) ([]models.Product, error)
	UpdateProduct(tenantID string, product *models.Product) error
	UpdateStock(executor SQLExecutor, tenantID string, productID int64, newStock int64) error
	DeactivateProduct(tenantID string, id int64) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateCategory(tenantID string, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (tenant_id, name, description, is_active, created_at)
	          VALUES ($1, $2, $3, TRUE, NOW())
	          RETURNING id, created_at`
	err := r.db.QueryRow(query, tenantID, category.Name, category.Description).
		Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		return 0, mapPQError(err, "creating category")
	}
	category.TenantID = tenantID
	category.IsActive = true
	return category.ID, nil
}

func (r *productRepository) GetCategories(tenantID string) ([]models.Category, error) {
	query := `SELECT id, tenant_id, name, description, is_active, created_at
	          FROM categories
	          WHERE tenant_id = $1 AND is_active = TRUE
	          ORDER BY name`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

const productColumns = `p.id, p.tenant_id, p.category_id, p.code, p.name, p.description,
	p.cost_price, p.sale_price, p.wholesale_price, p.current_stock, p.minimum_stock,
	p.unit, p.tax_type, p.is_active, p.track_inventory, p.created_at, p.updated_at`

func scanProduct(s scanner) (*models.Product, error) {
	var p models.Product
	var categoryID sql.NullInt64
	var wholesale sql.NullInt64
	if err := s.Scan(
		&p.ID, &p.TenantID, &categoryID, &p.Code, &p.Name, &p.Description,
		&p.CostPrice, &p.SalePrice, &wholesale, &p.CurrentStock, &p.MinimumStock,
		&p.Unit, &p.TaxType, &p.IsActive, &p.TrackInventory, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if wholesale.Valid {
		p.WholesalePrice = &wholesale.Int64
	}
	return &p, nil
}

func (r *productRepository) CreateProduct(tenantID string, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	          (tenant_id, category_id, code, name, description, cost_price, sale_price,
	           wholesale_price, current_stock, minimum_stock, unit, tax_type,
	           is_active, track_inventory, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	var categoryID sql.NullInt64
	if product.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *product.CategoryID, Valid: true}
	}
	var wholesale sql.NullInt64
	if product.WholesalePrice != nil {
		wholesale = sql.NullInt64{Int64: *product.WholesalePrice, Valid: true}
	}
	err := r.db.QueryRow(query,
		tenantID, categoryID, product.Code, product.Name, product.Description,
		product.CostPrice, product.SalePrice, wholesale, product.CurrentStock,
		product.MinimumStock, product.Unit, product.TaxType, product.TrackInventory,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return 0, mapPQError(err, fmt.Sprintf("creating product code %s", product.Code))
	}
	product.TenantID = tenantID
	product.IsActive = true
	return product.ID, nil
}

func (r *productRepository) GetProductByID(tenantID string, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.tenant_id = $1 AND p.id = $2`
	p, err := scanProduct(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: product with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting product %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

func (r *productRepository) GetProductByIDForUpdate(executor SQLExecutor, tenantID string, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p
	          WHERE p.tenant_id = $1 AND p.id = $2 FOR UPDATE`
	p, err := scanProduct(executor.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: product with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: locking product %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

func (r *productRepository) GetProducts(tenantID string, filters models.ProductFilters) ([]models.Product, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `,
	    c.name AS category_name,
	    COUNT(*) OVER() AS total_count
	  FROM products p
	  LEFT JOIN categories c ON p.category_id = c.id`)

	conditions := []string{"p.tenant_id = $1", "p.is_active = TRUE"}
	args := []interface{}{tenantID}
	argCount := 2

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.code ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.LowStock {
		conditions = append(conditions, "p.track_inventory = TRUE AND p.current_stock <= p.minimum_stock")
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY p.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	totalCount := 0
	for rows.Next() {
		var p models.Product
		var categoryID, wholesale sql.NullInt64
		var categoryName sql.NullString
		if err := rows.Scan(
			&p.ID, &p.TenantID, &categoryID, &p.Code, &p.Name, &p.Description,
			&p.CostPrice, &p.SalePrice, &wholesale, &p.CurrentStock, &p.MinimumStock,
			&p.Unit, &p.TaxType, &p.IsActive, &p.TrackInventory, &p.CreatedAt, &p.UpdatedAt,
			&categoryName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		if categoryID.Valid {
			p.CategoryID = &categoryID.Int64
			if categoryName.Valid {
				p.Category = &models.Category{ID: categoryID.Int64, Name: categoryName.String}
			}
		}
		if wholesale.Valid {
			p.WholesalePrice = &wholesale.Int64
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) GetLowStockProducts(tenantID string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p
	          WHERE p.tenant_id = $1 AND p.is_active = TRUE
	            AND p.track_inventory = TRUE AND p.current_stock <= p.minimum_stock
	          ORDER BY p.current_stock - p.minimum_stock`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting low stock products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning low stock product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) UpdateProduct(tenantID string, product *models.Product) error {
	query := `UPDATE products SET
	            category_id = $1, code = $2, name = $3, description = $4,
	            cost_price = $5, sale_price = $6, wholesale_price = $7,
	            minimum_stock = $8, unit = $9, tax_type = $10,
	            track_inventory = $11, updated_at = NOW()
	          WHERE tenant_id = $12 AND id = $13`
	var categoryID sql.NullInt64
	if product.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *product.CategoryID, Valid: true}
	}
	var wholesale sql.NullInt64
	if product.WholesalePrice != nil {
		wholesale = sql.NullInt64{Int64: *product.WholesalePrice, Valid: true}
	}
	result, err := r.db.Exec(query,
		categoryID, product.Code, product.Name, product.Description,
		product.CostPrice, product.SalePrice, wholesale,
		product.MinimumStock, product.Unit, product.TaxType,
		product.TrackInventory, tenantID, product.ID,
	)
	if err != nil {
		return mapPQError(err, fmt.Sprintf("updating product %d", product.ID))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for product update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: product with ID %d", ErrNotFound, product.ID)
	}
	return nil
}

// UpdateStock sets the running stock counter. Callers must hold the row lock
// (GetProductByIDForUpdate) and append a matching stock movement in the same
// transaction.
func (r *productRepository) UpdateStock(executor SQLExecutor, tenantID string, productID int64, newStock int64) error {
	query := `UPDATE products SET current_stock = $1, updated_at = NOW()
	          WHERE tenant_id = $2 AND id = $3`
	result, err := executor.Exec(query, newStock, tenantID, productID)
	if err != nil {
		return fmt.Errorf("%w: updating stock for product %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for stock update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: product with ID %d", ErrNotFound, productID)
	}
	return nil
}

func (r *productRepository) DeactivateProduct(tenantID string, id int64) error {
	query := `UPDATE products SET is_active = FALSE, updated_at = NOW()
	          WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.Exec(query, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: deactivating product %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected for product deactivation: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: product with ID %d", ErrNotFound, id)
	}
	return nil
}

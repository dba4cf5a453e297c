package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
	"strings"
)

// StockMovementRepository defines the interface for the append-only stock ledger.
type StockMovementRepository interface {
	// CreateMovement appends one ledger row. It runs on the caller's executor
	// so the movement lands in the same transaction as the stock update.
	CreateMovement(executor SQLExecutor, tenantID string, movement *models.StockMovement) (int64, error)
	GetMovements(tenantID string, productID *int64, movementType *string, page, pageSize int) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, tenantID string, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	          (tenant_id, product_id, movement_type, quantity, previous_stock, new_stock,
	           reference, notes, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	          RETURNING id, created_at`
	var createdBy sql.NullInt64
	if movement.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *movement.CreatedBy, Valid: true}
	}
	err := executor.QueryRow(query,
		tenantID, movement.ProductID, movement.MovementType, movement.Quantity,
		movement.PreviousStock, movement.NewStock, movement.Reference, movement.Notes, createdBy,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	movement.TenantID = tenantID
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(tenantID string, productID *int64, movementType *string, page, pageSize int) ([]models.StockMovement, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.tenant_id, sm.product_id, sm.movement_type, sm.quantity,
	    sm.previous_stock, sm.new_stock, sm.reference, sm.notes, sm.created_by, sm.created_at,
	    p.code AS product_code, p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id`)

	conditions := []string{"sm.tenant_id = $1"}
	args := []interface{}{tenantID}
	argCount := 2

	if productID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *productID)
		argCount++
	}
	if movementType != nil && *movementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *movementType)
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	totalCount := 0
	for rows.Next() {
		var m models.StockMovement
		var createdBy sql.NullInt64
		var productCode, productName string
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.ProductID, &m.MovementType, &m.Quantity,
			&m.PreviousStock, &m.NewStock, &m.Reference, &m.Notes, &createdBy, &m.CreatedAt,
			&productCode, &productName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		if createdBy.Valid {
			m.CreatedBy = &createdBy.Int64
		}
		m.Product = &models.Product{ID: m.ProductID, Code: productCode, Name: productName}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"pyme_pos_backend/internal/models"
)

// CashRegisterRepository defines the interface for cash register sessions.
type CashRegisterRepository interface {
	// CreateRegister inserts a new open register. The partial unique index on
	// (tenant_id) WHERE status='open' turns a concurrent second open into
	// ErrDuplicateKey.
	CreateRegister(tenantID string, register *models.CashRegister) error
	GetOpenRegister(tenantID string) (*models.CashRegister, error)
	GetRegisterByID(tenantID string, id string) (*models.CashRegister, error)
	GetRegisters(tenantID string, page, pageSize int) ([]models.CashRegister, int, error)
	CloseRegister(tenantID string, register *models.CashRegister) error
}

type cashRegisterRepository struct {
	db *sql.DB
}

// NewCashRegisterRepository creates a new instance of CashRegisterRepository.
func NewCashRegisterRepository(db *sql.DB) CashRegisterRepository {
	return &cashRegisterRepository{db: db}
}

const registerColumns = `r.id, r.tenant_id, r.status, r.opened_by, r.opened_at, r.closed_by, r.closed_at,
	r.initial_amount_pyg, r.initial_amount_usd, r.initial_amount_brl,
	r.expected_amount_pyg, r.expected_amount_usd, r.expected_amount_brl,
	r.actual_amount_pyg, r.actual_amount_usd, r.actual_amount_brl,
	r.difference_pyg, r.difference_usd, r.difference_brl, r.notes`

func scanRegister(s scanner) (*models.CashRegister, error) {
	var reg models.CashRegister
	var openedBy, closedBy sql.NullInt64
	var closedAt sql.NullTime
	if err := s.Scan(
		&reg.ID, &reg.TenantID, &reg.Status, &openedBy, &reg.OpenedAt, &closedBy, &closedAt,
		&reg.Initial.PYG, &reg.Initial.USD, &reg.Initial.BRL,
		&reg.Expected.PYG, &reg.Expected.USD, &reg.Expected.BRL,
		&reg.Actual.PYG, &reg.Actual.USD, &reg.Actual.BRL,
		&reg.Diff.PYG, &reg.Diff.USD, &reg.Diff.BRL, &reg.Notes,
	); err != nil {
		return nil, err
	}
	if openedBy.Valid {
		reg.OpenedBy = &openedBy.Int64
	}
	if closedBy.Valid {
		reg.ClosedBy = &closedBy.Int64
	}
	if closedAt.Valid {
		reg.ClosedAt = &closedAt.Time
	}
	return &reg, nil
}

func (r *cashRegisterRepository) CreateRegister(tenantID string, register *models.CashRegister) error {
	query := `INSERT INTO cash_registers
	          (id, tenant_id, status, opened_by, opened_at,
	           initial_amount_pyg, initial_amount_usd, initial_amount_brl, notes)
	          VALUES ($1, $2, $3, $4, NOW(), $5, $6, $7, $8)
	          RETURNING opened_at`
	var openedBy sql.NullInt64
	if register.OpenedBy != nil {
		openedBy = sql.NullInt64{Int64: *register.OpenedBy, Valid: true}
	}
	err := r.db.QueryRow(query,
		register.ID, tenantID, models.CashRegisterOpen, openedBy,
		register.Initial.PYG, register.Initial.USD, register.Initial.BRL, register.Notes,
	).Scan(&register.OpenedAt)
	if err != nil {
		return mapPQError(err, "opening cash register")
	}
	register.TenantID = tenantID
	register.Status = models.CashRegisterOpen
	return nil
}

func (r *cashRegisterRepository) GetOpenRegister(tenantID string) (*models.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers r
	          WHERE r.tenant_id = $1 AND r.status = $2`
	reg, err := scanRegister(r.db.QueryRow(query, tenantID, models.CashRegisterOpen))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: open cash register", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: getting open cash register: %v", ErrDatabaseError, err)
	}
	return reg, nil
}

func (r *cashRegisterRepository) GetRegisterByID(tenantID string, id string) (*models.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers r
	          WHERE r.tenant_id = $1 AND r.id = $2`
	reg, err := scanRegister(r.db.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: cash register with ID %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting cash register %s: %v", ErrDatabaseError, id, err)
	}
	return reg, nil
}

func (r *cashRegisterRepository) GetRegisters(tenantID string, page, pageSize int) ([]models.CashRegister, int, error) {
	query := `SELECT ` + registerColumns + `, COUNT(*) OVER() AS total_count
	          FROM cash_registers r
	          WHERE r.tenant_id = $1
	          ORDER BY r.opened_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(query, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting cash registers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	registers := []models.CashRegister{}
	totalCount := 0
	for rows.Next() {
		var reg models.CashRegister
		var openedBy, closedBy sql.NullInt64
		var closedAt sql.NullTime
		if err := rows.Scan(
			&reg.ID, &reg.TenantID, &reg.Status, &openedBy, &reg.OpenedAt, &closedBy, &closedAt,
			&reg.Initial.PYG, &reg.Initial.USD, &reg.Initial.BRL,
			&reg.Expected.PYG, &reg.Expected.USD, &reg.Expected.BRL,
			&reg.Actual.PYG, &reg.Actual.USD, &reg.Actual.BRL,
			&reg.Diff.PYG, &reg.Diff.USD, &reg.Diff.BRL, &reg.Notes,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning cash register: %v", ErrDatabaseError, err)
		}
		if openedBy.Valid {
			reg.OpenedBy = &openedBy.Int64
		}
		if closedBy.Valid {
			reg.ClosedBy = &closedBy.Int64
		}
		if closedAt.Valid {
			reg.ClosedAt = &closedAt.Time
		}
		registers = append(registers, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating cash registers: %v", ErrDatabaseError, err)
	}
	return registers, totalCount, nil
}

// CloseRegister transitions an open register to closed, recording the counted
// and computed amounts. The status guard makes a double close a no-row update.
func (r *cashRegisterRepository) CloseRegister(tenantID string, register *models.CashRegister) error {
	query := `UPDATE cash_registers SET
	            status = $1, closed_by = $2, closed_at = NOW(),
	            expected_amount_pyg = $3, expected_amount_usd = $4, expected_amount_brl = $5,
	            actual_amount_pyg = $6, actual_amount_usd = $7, actual_amount_brl = $8,
	            difference_pyg = $9, difference_usd = $10, difference_brl = $11,
	            notes = $12
	          WHERE tenant_id = $13 AND id = $14 AND status = $15
	          RETURNING closed_at`
	var closedBy sql.NullInt64
	if register.ClosedBy != nil {
		closedBy = sql.NullInt64{Int64: *register.ClosedBy, Valid: true}
	}
	var closedAt sql.NullTime
	err := r.db.QueryRow(query,
		models.CashRegisterClosed, closedBy,
		register.Expected.PYG, register.Expected.USD, register.Expected.BRL,
		register.Actual.PYG, register.Actual.USD, register.Actual.BRL,
		register.Diff.PYG, register.Diff.USD, register.Diff.BRL,
		register.Notes, tenantID, register.ID, models.CashRegisterOpen,
	).Scan(&closedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: open cash register with ID %s", ErrNotFound, register.ID)
		}
		return fmt.Errorf("%w: closing cash register %s: %v", ErrDatabaseError, register.ID, err)
	}
	register.Status = models.CashRegisterClosed
	if closedAt.Valid {
		register.ClosedAt = &closedAt.Time
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/repositories"
)

var ErrRegisterAlreadyOpen = errors.New("a cash register is already open")

// OpenRegisterRequest opens a cash session with the counted float.
type OpenRegisterRequest struct {
	Initial  models.CashAmounts `json:"initial_amounts"`
	Notes    string             `json:"notes"`
	OpenedBy *int64             `json:"-"`
}

// CloseRegisterRequest closes the session with the counted drawer.
type CloseRegisterRequest struct {
	Actual   models.CashAmounts `json:"actual_amounts"`
	Notes    string             `json:"notes"`
	ClosedBy *int64             `json:"-"`
}

// CashRegisterService manages the open/close lifecycle and the per-currency
// reconciliation against cash sales.
type CashRegisterService interface {
	OpenRegister(tenantID string, req OpenRegisterRequest) (*models.CashRegister, error)
	CloseRegister(tenantID string, req CloseRegisterRequest) (*models.CashRegister, error)
	GetOpenRegister(tenantID string) (*models.CashRegister, error)
	GetRegisterByID(tenantID string, id string) (*models.CashRegister, error)
	GetRegisters(tenantID string, page, pageSize int) ([]models.CashRegister, int, error)
}

type cashRegisterService struct {
	registerRepo repositories.CashRegisterRepository
	saleRepo     repositories.SaleRepository
}

// NewCashRegisterService creates a new instance of CashRegisterService.
func NewCashRegisterService(rr repositories.CashRegisterRepository, sr repositories.SaleRepository) CashRegisterService {
	return &cashRegisterService{registerRepo: rr, saleRepo: sr}
}

func (s *cashRegisterService) OpenRegister(tenantID string, req OpenRegisterRequest) (*models.CashRegister, error) {
	if req.Initial.PYG.IsNegative() || req.Initial.USD.IsNegative() || req.Initial.BRL.IsNegative() {
		return nil, fmt.Errorf("%w: initial amounts cannot be negative", ErrValidation)
	}
	register := &models.CashRegister{
		ID:       uuid.NewString(),
		OpenedBy: req.OpenedBy,
		Initial:  req.Initial,
		Notes:    req.Notes,
	}
	if err := s.registerRepo.CreateRegister(tenantID, register); err != nil {
		// The partial unique index turns a concurrent second open into a
		// duplicate key; report it as the domain conflict it is.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %v", ErrRegisterAlreadyOpen, err)
		}
		return nil, err
	}
	return register, nil
}

// CloseRegister computes, per currency, expected = initial float + cash-method
// sales tendered in that currency while the register was open, and the
// difference = counted − expected. Closing is terminal.
func (s *cashRegisterService) CloseRegister(tenantID string, req CloseRegisterRequest) (*models.CashRegister, error) {
	register, err := s.registerRepo.GetOpenRegister(tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no open cash register to close", ErrConflict)
		}
		return nil, err
	}

	now := time.Now()
	cashSales, err := s.saleRepo.CashSalesTotalsByCurrency(tenantID, register.OpenedAt, now)
	if err != nil {
		return nil, err
	}

	register.Expected = register.Initial.Add(cashSales)
	register.Actual = req.Actual
	register.Diff = req.Actual.Sub(register.Expected)
	register.ClosedBy = req.ClosedBy
	if req.Notes != "" {
		register.Notes = req.Notes
	}

	if err := s.registerRepo.CloseRegister(tenantID, register); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: cash register was closed concurrently", ErrConflict)
		}
		return nil, err
	}
	return register, nil
}

func (s *cashRegisterService) GetOpenRegister(tenantID string) (*models.CashRegister, error) {
	return s.registerRepo.GetOpenRegister(tenantID)
}

func (s *cashRegisterService) GetRegisterByID(tenantID string, id string) (*models.CashRegister, error) {
	return s.registerRepo.GetRegisterByID(tenantID, id)
}

func (s *cashRegisterService) GetRegisters(tenantID string, page, pageSize int) ([]models.CashRegister, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.registerRepo.GetRegisters(tenantID, page, pageSize)
}

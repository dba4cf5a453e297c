package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pyme_pos_backend/internal/models"
	"pyme_pos_backend/internal/services"
	"pyme_pos_backend/pkg/utils"
)

// CashRegisterHandler holds the cash register service.
type CashRegisterHandler struct {
	registerService services.CashRegisterService
}

// NewCashRegisterHandler creates a new CashRegisterHandler.
func NewCashRegisterHandler(rs services.CashRegisterService) *CashRegisterHandler {
	return &CashRegisterHandler{registerService: rs}
}

// OpenRegister handles opening the day's cash session with the counted float.
func (h *CashRegisterHandler) OpenRegister(c *gin.Context) {
	var req services.OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.OpenedBy = currentUserID(c)

	register, err := h.registerService.OpenRegister(tenantID(c), req)
	if err != nil {
		if errors.Is(err, services.ErrRegisterAlreadyOpen) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A cash register is already open.", err.Error()))
			return
		}
		respondServiceError(c, err, "OpenRegister: Error from registerService.OpenRegister")
		return
	}
	c.JSON(http.StatusCreated, register)
}

// CloseRegister handles closing the open session with the counted drawer.
// The response carries expected vs actual per currency.
func (h *CashRegisterHandler) CloseRegister(c *gin.Context) {
	var req services.CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.ClosedBy = currentUserID(c)

	register, err := h.registerService.CloseRegister(tenantID(c), req)
	if err != nil {
		respondServiceError(c, err, "CloseRegister: Error from registerService.CloseRegister")
		return
	}
	c.JSON(http.StatusOK, register)
}

// GetOpenRegister handles fetching the currently open session, if any.
func (h *CashRegisterHandler) GetOpenRegister(c *gin.Context) {
	register, err := h.registerService.GetOpenRegister(tenantID(c))
	if err != nil {
		respondServiceError(c, err, "GetOpenRegister: Error from registerService.GetOpenRegister")
		return
	}
	c.JSON(http.StatusOK, register)
}

// GetRegisterByID handles fetching one historical session.
func (h *CashRegisterHandler) GetRegisterByID(c *gin.Context) {
	register, err := h.registerService.GetRegisterByID(tenantID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "GetRegisterByID: Error from registerService.GetRegisterByID")
		return
	}
	c.JSON(http.StatusOK, register)
}

// GetRegisters handles listing past sessions.
func (h *CashRegisterHandler) GetRegisters(c *gin.Context) {
	page, pageSize := parsePagination(c)
	registers, total, err := h.registerService.GetRegisters(tenantID(c), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetRegisters: Error from registerService.GetRegisters")
		return
	}
	if registers == nil {
		registers = []models.CashRegister{}
	}
	respondPage(c, registers, total, page, pageSize)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dinein-backend/internal/domains/table/model"
	"dinein-backend/internal/domains/table/service"
	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
)

// TableHandler serves table occupancy and admin endpoints
type TableHandler struct {
	svc service.TableService
}

func NewTableHandler(svc service.TableService) *TableHandler {
	return &TableHandler{svc: svc}
}

// Admit godoc
// POST /api/v1/tables/admit
func (h *TableHandler) Admit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.svc.Admit(c.Request.Context(), userID, &req)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Seated", table)
}

// Release godoc
// POST /api/v1/tables/release
func (h *TableHandler) Release(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.svc.Release(c.Request.Context(), userID); err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Released", nil)
}

// IssueSoftCode godoc
// POST /api/v1/tables/:id/soft-code
func (h *TableHandler) IssueSoftCode(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	code, err := h.svc.IssueSoftCode(c.Request.Context(), userID, tableID, middleware.Role(c))
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Soft code issued", code)
}

// Current godoc
// GET /api/v1/tables/current
func (h *TableHandler) Current(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	table, err := h.svc.CurrentTable(c.Request.Context(), userID)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Current table", table)
}

// Occupants godoc
// GET /api/v1/tables/:id/occupants
func (h *TableHandler) Occupants(c *gin.Context) {
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	occupants, err := h.svc.ListOccupants(c.Request.Context(), tableID)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Occupants retrieved", occupants)
}

// List godoc
// GET /api/v1/staff/tables
func (h *TableHandler) List(c *gin.Context) {
	tables, err := h.svc.ListTables(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to list tables")
		return
	}
	response.Success(c, http.StatusOK, "Tables retrieved", tables)
}

// SetLockState godoc
// PUT /api/v1/staff/tables/:id/lock-state
func (h *TableHandler) SetLockState(c *gin.Context) {
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	var req model.SetLockStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid lock state", err.Error())
		return
	}

	table, err := h.svc.SetLockState(c.Request.Context(), tableID, req.State)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Lock state updated", table)
}

// SetPaymentLockState godoc
// PUT /api/v1/staff/tables/:id/payment-lock-state
func (h *TableHandler) SetPaymentLockState(c *gin.Context) {
	staffID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	var req model.SetLockStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid lock state", err.Error())
		return
	}

	table, err := h.svc.SetPaymentLockState(c.Request.Context(), tableID, staffID, req.State)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment lock state updated", table)
}

// Create godoc
// POST /api/v1/admin/tables
func (h *TableHandler) Create(c *gin.Context) {
	var req model.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.svc.CreateTable(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrTableNumberExists) {
			response.Conflict(c, "Table number already exists")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Failed to create table", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, "Table created", table)
}

// Update godoc
// PUT /api/v1/admin/tables/:id
func (h *TableHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	var req model.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	table, err := h.svc.UpdateTable(c.Request.Context(), id, &req)
	if err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Table updated", table)
}

// Delete godoc
// DELETE /api/v1/admin/tables/:id
func (h *TableHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	if err := h.svc.DeleteTable(c.Request.Context(), id); err != nil {
		writeTableError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Table deleted", nil)
}

// writeTableError maps domain errors to HTTP responses
func writeTableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrTableNotFound):
		response.NotFound(c, "Table not found")
	case errors.Is(err, model.ErrNotSeated):
		response.NotFound(c, "Not seated at any table")
	case errors.Is(err, model.ErrTableLocked):
		response.Error(c, http.StatusConflict, "TABLE_LOCKED", "Table is locked")
	case errors.Is(err, model.ErrTableOccupied):
		response.Error(c, http.StatusConflict, "TABLE_OCCUPIED", "Table is already occupied")
	case errors.Is(err, model.ErrAlreadySeatedElsewhere):
		response.Error(c, http.StatusConflict, "SEATED_ELSEWHERE", "Already seated at another table")
	case errors.Is(err, model.ErrUnsettledTabExists):
		response.Error(c, http.StatusConflict, "UNSETTLED_TAB", "Settle your tab before leaving")
	case errors.Is(err, model.ErrUnsettledTabsRemain):
		response.Error(c, http.StatusConflict, "UNSETTLED_TABS", "Unsettled tabs remain at this table")
	case errors.Is(err, model.ErrPaymentAlreadyClaimed):
		response.Error(c, http.StatusConflict, "PAYMENT_CLAIMED", "Payment is already claimed by another staff member")
	case errors.Is(err, model.ErrTableAlreadyInThatState):
		response.Error(c, http.StatusConflict, "NO_STATE_CHANGE", "Table is already in the requested state")
	case errors.Is(err, model.ErrTableNumberExists):
		response.Conflict(c, "Table number already exists")
	case errors.Is(err, model.ErrTableNotLocked):
		response.Error(c, http.StatusConflict, "TABLE_NOT_LOCKED", "Lock the table before deleting it")
	case errors.Is(err, model.ErrInvalidSoftCode):
		response.Error(c, http.StatusForbidden, "INVALID_CODE", "Invalid or expired admission code")
	default:
		response.ErrorWithDetails(c, http.StatusBadRequest, "REQUEST_FAILED", "Request failed", err.Error())
	}
}

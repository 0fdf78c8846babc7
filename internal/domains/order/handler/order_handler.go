package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dinein-backend/internal/domains/order/model"
	"dinein-backend/internal/domains/order/service"
	tablemodel "dinein-backend/internal/domains/table/model"
	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
)

// OrderHandler serves tab submission, line transitions and views
type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Submit godoc
// POST /api/v1/orders
func (h *OrderHandler) Submit(c *gin.Context) {
	actorID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.SubmitItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.svc.SubmitItems(c.Request.Context(), actorID, middleware.Role(c), &req)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Items submitted", order)
}

// TransitionLine godoc
// PUT /api/v1/tables/:id/lines/:lineID/status
func (h *OrderHandler) TransitionLine(c *gin.Context) {
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		response.BadRequest(c, "Invalid line id")
		return
	}

	var req model.TransitionLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	line, err := h.svc.TransitionLine(c.Request.Context(), tableID, lineID, middleware.Role(c), &req)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Line updated", line)
}

// RemoveUnits godoc
// DELETE /api/v1/tables/:id/lines/:lineID
func (h *OrderHandler) RemoveUnits(c *gin.Context) {
	actorID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		response.BadRequest(c, "Invalid line id")
		return
	}

	var req model.RemoveUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.svc.RemoveUnits(c.Request.Context(), actorID, middleware.Role(c), tableID, lineID, &req); err != nil {
		writeOrderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Units removed", nil)
}

// MyTab godoc
// GET /api/v1/tables/:id/tab
func (h *OrderHandler) MyTab(c *gin.Context) {
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

	tab, err := h.svc.GetTab(c.Request.Context(), userID, tableID)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Tab retrieved", tab)
}

// TableView godoc
// GET /api/v1/tables/:id/view
func (h *OrderHandler) TableView(c *gin.Context) {
	tableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid table id")
		return
	}

	view, err := h.svc.GetTableView(c.Request.Context(), tableID)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Table view retrieved", view)
}

// Kitchen godoc
// GET /api/v1/staff/kitchen?status=preparing|served
func (h *OrderHandler) Kitchen(c *gin.Context) {
	status := c.DefaultQuery("status", model.StatusPreparing)

	lines, err := h.svc.ListKitchen(c.Request.Context(), status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Kitchen lines retrieved", lines)
}

// writeOrderError maps domain errors to HTTP responses
func writeOrderError(c *gin.Context, err error) {
	var unknown *model.UnknownMenuItemsError
	switch {
	case errors.As(err, &unknown):
		response.ErrorWithDetails(c, http.StatusBadRequest, "UNKNOWN_MENU_ITEMS", "Submission rejected", unknown.Error())
	case errors.Is(err, model.ErrOrderNotFound):
		response.NotFound(c, "No open tab found")
	case errors.Is(err, model.ErrLineNotFound):
		response.NotFound(c, "Order line not found")
	case errors.Is(err, model.ErrNotSeatedAtTable):
		response.Forbidden(c, "Not seated at this table")
	case errors.Is(err, model.ErrQuantityExceedsAvailable):
		response.Error(c, http.StatusConflict, "QUANTITY_EXCEEDED", "Quantity exceeds units available")
	case errors.Is(err, model.ErrItemAlreadyServed):
		response.Error(c, http.StatusConflict, "ALREADY_SERVED", "Served items cannot be removed")
	case errors.Is(err, model.ErrDeletionWindowExpired):
		response.Error(c, http.StatusConflict, "WINDOW_EXPIRED", "Deletion window has expired, ask staff")
	case errors.Is(err, model.ErrUnserveStaffOnly):
		response.Forbidden(c, "Moving items back to preparing is staff only")
	case errors.Is(err, model.ErrContention):
		response.Error(c, http.StatusConflict, "CONTENTION", "Tab was modified concurrently, please retry")
	case errors.Is(err, tablemodel.ErrTableNotFound):
		response.NotFound(c, "Table not found")
	default:
		response.ErrorWithDetails(c, http.StatusBadRequest, "REQUEST_FAILED", "Request failed", err.Error())
	}
}

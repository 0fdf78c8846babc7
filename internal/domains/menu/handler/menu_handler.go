package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dinein-backend/internal/domains/menu/model"
	"dinein-backend/internal/domains/menu/service"
	"dinein-backend/internal/shared/response"
)

// MenuHandler serves the menu catalog HTTP API
type MenuHandler struct {
	svc service.MenuService
}

func NewMenuHandler(svc service.MenuService) *MenuHandler {
	return &MenuHandler{svc: svc}
}

// List godoc
// GET /api/v1/menu?category=&all=true
func (h *MenuHandler) List(c *gin.Context) {
	category := c.Query("category")
	onlyAvailable := c.Query("all") != "true"

	items, err := h.svc.ListItems(c.Request.Context(), category, onlyAvailable)
	if err != nil {
		response.InternalError(c, "Failed to list menu items")
		return
	}
	response.Success(c, http.StatusOK, "Menu items retrieved", items)
}

// Get godoc
// GET /api/v1/menu/:id
func (h *MenuHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid menu item id")
		return
	}

	item, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			response.NotFound(c, "Menu item not found")
			return
		}
		response.InternalError(c, "Failed to get menu item")
		return
	}
	response.Success(c, http.StatusOK, "Menu item retrieved", item)
}

// Create godoc
// POST /api/v1/admin/menu
func (h *MenuHandler) Create(c *gin.Context) {
	var req model.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrMenuItemNameExists) {
			response.Conflict(c, "Menu item name already exists")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Failed to create menu item", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, "Menu item created", item)
}

// Update godoc
// PUT /api/v1/admin/menu/:id
func (h *MenuHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid menu item id")
		return
	}

	var req model.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			response.NotFound(c, "Menu item not found")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Failed to update menu item", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Menu item updated", item)
}

// Delete godoc
// DELETE /api/v1/admin/menu/:id
func (h *MenuHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid menu item id")
		return
	}

	if err := h.svc.DeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			response.NotFound(c, "Menu item not found")
			return
		}
		response.InternalError(c, "Failed to delete menu item")
		return
	}
	response.Success(c, http.StatusOK, "Menu item deleted", nil)
}

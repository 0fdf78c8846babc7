package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dinein-backend/internal/domains/promotion/model"
	"dinein-backend/internal/domains/promotion/service"
	"dinein-backend/internal/shared/response"
)

// AdminHandler serves voucher management endpoints
type AdminHandler struct {
	svc service.PromotionService
}

func NewAdminHandler(svc service.PromotionService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Create godoc
// POST /api/v1/admin/promotions
func (h *AdminHandler) Create(c *gin.Context) {
	var req model.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	promo, err := h.svc.CreatePromotion(c.Request.Context(), &req)
	if err != nil {
		writePromotionError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Promotion created", promo)
}

// Update godoc
// PUT /api/v1/admin/promotions/:id
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid promotion id")
		return
	}

	var req model.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	promo, err := h.svc.UpdatePromotion(c.Request.Context(), id, &req)
	if err != nil {
		writePromotionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Promotion updated", promo)
}

// SetActive godoc
// PUT /api/v1/admin/promotions/:id/status
func (h *AdminHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid promotion id")
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.BadRequest(c, "is_active is required")
		return
	}

	promo, err := h.svc.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writePromotionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Promotion status updated", promo)
}

// Delete godoc
// DELETE /api/v1/admin/promotions/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid promotion id")
		return
	}

	if err := h.svc.DeletePromotion(c.Request.Context(), id); err != nil {
		writePromotionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Promotion deleted", nil)
}

// List godoc
// GET /api/v1/admin/promotions?active=true
func (h *AdminHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	promos, err := h.svc.ListPromotions(c.Request.Context(), activeOnly)
	if err != nil {
		response.InternalError(c, "Failed to list promotions")
		return
	}
	response.Success(c, http.StatusOK, "Promotions retrieved", promos)
}

// UserUsage godoc
// GET /api/v1/admin/promotions/usage/:userID
func (h *AdminHandler) UserUsage(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "Invalid user id")
		return
	}

	usage, err := h.svc.UserUsageReport(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to load usage history")
		return
	}
	response.Success(c, http.StatusOK, "Usage history retrieved", usage)
}

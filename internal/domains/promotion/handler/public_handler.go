package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinein-backend/internal/domains/promotion/model"
	"dinein-backend/internal/domains/promotion/service"
	usermodel "dinein-backend/internal/domains/user/model"
	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
)

// PublicHandler serves diner-facing voucher endpoints
type PublicHandler struct {
	svc service.PromotionService
}

func NewPublicHandler(svc service.PromotionService) *PublicHandler {
	return &PublicHandler{svc: svc}
}

// Evaluate godoc
// POST /api/v1/promotions/evaluate
func (h *PublicHandler) Evaluate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	eval, err := h.svc.Evaluate(c.Request.Context(), userID, &req)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Evaluation failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, "Promotion evaluated", eval)
}

// Redeem godoc
// POST /api/v1/promotions/redeem
func (h *PublicHandler) Redeem(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	redemption, err := h.svc.Redeem(c.Request.Context(), userID, &req)
	if err != nil {
		writePromotionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Promotion redeemed", redemption)
}

// ListActive godoc
// GET /api/v1/promotions
func (h *PublicHandler) ListActive(c *gin.Context) {
	promos, err := h.svc.ListPromotions(c.Request.Context(), true)
	if err != nil {
		response.InternalError(c, "Failed to list promotions")
		return
	}
	response.Success(c, http.StatusOK, "Promotions retrieved", promos)
}

// MyUsage godoc
// GET /api/v1/promotions/usage
func (h *PublicHandler) MyUsage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	usage, err := h.svc.UserUsageReport(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to load usage history")
		return
	}
	response.Success(c, http.StatusOK, "Usage history retrieved", usage)
}

// writePromotionError maps domain errors to HTTP responses
func writePromotionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrPromotionNotFound):
		response.NotFound(c, "Promotion not found")
	case errors.Is(err, model.ErrPromotionInactive):
		response.Error(c, http.StatusConflict, "PROMO_INACTIVE", "Promotion is not active")
	case errors.Is(err, model.ErrPromotionNotInUse):
		response.Error(c, http.StatusConflict, "PROMO_NOT_STARTED", "Promotion has not started yet")
	case errors.Is(err, model.ErrPromotionExpired):
		response.Error(c, http.StatusConflict, "PROMO_EXPIRED", "Promotion has expired")
	case errors.Is(err, model.ErrPromotionExhausted):
		response.Error(c, http.StatusConflict, "PROMO_EXHAUSTED", "Promotion usage limit reached")
	case errors.Is(err, model.ErrNotPointGated):
		response.Error(c, http.StatusConflict, "PROMO_NOT_REDEEMABLE", "Promotion cannot be redeemed with points")
	case errors.Is(err, usermodel.ErrInsufficientPoints):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_POINTS", "Not enough loyalty points")
	case errors.Is(err, model.ErrCodeExists):
		response.Conflict(c, "Promotion code already exists")
	case errors.Is(err, model.ErrPromotionUsed):
		response.Error(c, http.StatusConflict, "PROMO_USED", "Used promotions cannot be deleted")
	case errors.Is(err, model.ErrVersionConflict):
		response.Error(c, http.StatusConflict, "UPDATE_CONFLICT", "Promotion was modified concurrently")
	default:
		response.ErrorWithDetails(c, http.StatusBadRequest, "REQUEST_FAILED", "Request failed", err.Error())
	}
}

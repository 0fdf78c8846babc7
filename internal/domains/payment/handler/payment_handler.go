package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dinein-backend/internal/domains/payment/gateway/zalopay"
	"dinein-backend/internal/domains/payment/model"
	"dinein-backend/internal/domains/payment/service"
	promomodel "dinein-backend/internal/domains/promotion/model"
	tablemodel "dinein-backend/internal/domains/table/model"
	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
)

// PaymentHandler serves settlement and payment history
type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// SettleCash godoc
// POST /api/v1/payments/cash
func (h *PaymentHandler) SettleCash(c *gin.Context) {
	staffID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.svc.SettleCash(c.Request.Context(), staffID, &req)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Settlement complete", payment)
}

// Initiate godoc
// POST /api/v1/payments/zalopay
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	initiated, err := h.svc.InitiateGatewaySettlement(c.Request.Context(), userID, &req)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Gateway order created", initiated)
}

// Callback godoc
// POST /api/v1/payments/zalopay/callback
//
// The gateway expects HTTP 200 with its own return_code convention,
// never our response envelope.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var payload zalopay.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, zalopay.CallbackResponse{ReturnCode: -1, ReturnMessage: "malformed payload"})
		return
	}
	c.JSON(http.StatusOK, h.svc.HandleGatewayCallback(c.Request.Context(), &payload))
}

// History godoc
// GET /api/v1/payments?user_id=
func (h *PaymentHandler) History(c *gin.Context) {
	callerID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var byUser *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "Invalid user id")
			return
		}
		byUser = &id
	}

	payments, err := h.svc.History(c.Request.Context(), callerID, middleware.Role(c), byUser)
	if err != nil {
		writePaymentError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payments retrieved", payments)
}

func writePaymentError(c *gin.Context, err error) {
	var incomplete *model.IncompleteItemsError
	if errors.As(err, &incomplete) {
		response.ErrorWithDetails(c, http.StatusConflict, "INCOMPLETE_ITEMS",
			"Some items have not been served yet", strings.Join(incomplete.Items, ", "))
		return
	}

	switch {
	case errors.Is(err, model.ErrPaymentNotClaimed):
		response.Forbidden(c, err.Error())
	case errors.Is(err, model.ErrNothingToSettle):
		response.NotFound(c, err.Error())
	case errors.Is(err, model.ErrTabsChanged),
		errors.Is(err, model.ErrDuplicateSettlement):
		response.Conflict(c, err.Error())
	case errors.Is(err, model.ErrGatewayRejected):
		response.Error(c, http.StatusBadGateway, "GATEWAY_REJECTED", err.Error())
	case errors.Is(err, tablemodel.ErrTableNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, promomodel.ErrPromotionNotFound),
		errors.Is(err, promomodel.ErrPromotionInactive),
		errors.Is(err, promomodel.ErrPromotionNotInUse),
		errors.Is(err, promomodel.ErrPromotionExpired),
		errors.Is(err, promomodel.ErrPromotionExhausted),
		errors.Is(err, promomodel.ErrUserLimitExceeded),
		errors.Is(err, promomodel.ErrNotRedeemed),
		errors.Is(err, promomodel.ErrOrderBelowMinimum):
		response.Error(c, http.StatusUnprocessableEntity, "PROMOTION_REJECTED", err.Error())
	default:
		response.InternalError(c, "Settlement failed")
	}
}

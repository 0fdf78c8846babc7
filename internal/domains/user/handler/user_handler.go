package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinein-backend/internal/domains/user/model"
	"dinein-backend/internal/domains/user/service"
	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
)

// UserHandler serves accounts and authentication
type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register godoc
// POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	profile, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailAlreadyExists) {
			response.Conflict(c, "Email already registered")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Registration failed", err.Error())
		return
	}
	response.Success(c, http.StatusCreated, "Account created", profile)
}

// Login godoc
// POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, model.ErrUserInactive):
			response.Forbidden(c, "Account is inactive")
		default:
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Login failed", err.Error())
		}
		return
	}
	response.Success(c, http.StatusOK, "Login successful", result)
}

// Refresh godoc
// POST /api/v1/auth/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), &req)
	if err != nil {
		response.Unauthorized(c, "Invalid or expired refresh token")
		return
	}
	response.Success(c, http.StatusOK, "Token refreshed", result)
}

// Me godoc
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c, "Failed to load profile")
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved", profile)
}

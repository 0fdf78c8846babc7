package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dinein-backend/internal/shared/middleware"
	"dinein-backend/internal/shared/response"
	"dinein-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupMenuRoutes(v1, c)
		setupTableRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupPromotionRoutes(v1, c)
		setupPaymentRoutes(v1, c)
	}

	return router
}

func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
		auth.GET("/me", middleware.Auth(c.JWTManager), c.UserHandler.Me)
	}
}

func setupMenuRoutes(v1 *gin.RouterGroup, c *container.Container) {
	menu := v1.Group("/menu")
	{
		menu.GET("", c.MenuHandler.List)
		menu.GET("/:id", c.MenuHandler.Get)
	}

	admin := v1.Group("/menu", middleware.Auth(c.JWTManager), middleware.RequireAdmin())
	{
		admin.POST("", c.MenuHandler.Create)
		admin.PUT("/:id", c.MenuHandler.Update)
		admin.DELETE("/:id", c.MenuHandler.Delete)
	}
}

func setupTableRoutes(v1 *gin.RouterGroup, c *container.Container) {
	tables := v1.Group("/tables", middleware.Auth(c.JWTManager))
	{
		tables.POST("/admit", c.TableHandler.Admit)
		tables.POST("/release", c.TableHandler.Release)
		tables.GET("/current", c.TableHandler.Current)
		tables.GET("", c.TableHandler.List)
		tables.GET("/:id/occupants", c.TableHandler.Occupants)
		tables.POST("/:id/soft-code", c.TableHandler.IssueSoftCode)

		// Tab views live under the table they belong to
		tables.GET("/:id/my-tab", c.OrderHandler.MyTab)
		tables.PUT("/:id/lines/:lineID/status", c.OrderHandler.TransitionLine)
		tables.DELETE("/:id/lines/:lineID", c.OrderHandler.RemoveUnits)
	}

	staff := v1.Group("/tables", middleware.Auth(c.JWTManager), middleware.RequireStaff())
	{
		staff.GET("/:id/view", c.OrderHandler.TableView)
		staff.PUT("/:id/lock", c.TableHandler.SetLockState)
		staff.PUT("/:id/payment-lock", c.TableHandler.SetPaymentLockState)
	}

	admin := v1.Group("/tables", middleware.Auth(c.JWTManager), middleware.RequireAdmin())
	{
		admin.POST("", c.TableHandler.Create)
		admin.PUT("/:id", c.TableHandler.Update)
		admin.DELETE("/:id", c.TableHandler.Delete)
	}
}

func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders", middleware.Auth(c.JWTManager))
	{
		orders.POST("", c.OrderHandler.Submit)
	}

	kitchen := v1.Group("/kitchen", middleware.Auth(c.JWTManager), middleware.RequireStaff())
	{
		kitchen.GET("/lines", c.OrderHandler.Kitchen)
	}
}

func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	promos := v1.Group("/promotions", middleware.Auth(c.JWTManager))
	{
		promos.GET("", c.PromotionHandler.ListActive)
		promos.POST("/evaluate", c.PromotionHandler.Evaluate)
		promos.POST("/redeem", c.PromotionHandler.Redeem)
		promos.GET("/my-usage", c.PromotionHandler.MyUsage)
	}

	admin := v1.Group("/admin/promotions", middleware.Auth(c.JWTManager), middleware.RequireAdmin())
	{
		admin.POST("", c.PromotionAdminHandler.Create)
		admin.GET("", c.PromotionAdminHandler.List)
		admin.PUT("/:id", c.PromotionAdminHandler.Update)
		admin.PUT("/:id/active", c.PromotionAdminHandler.SetActive)
		admin.DELETE("/:id", c.PromotionAdminHandler.Delete)
		admin.GET("/usage/:userID", c.PromotionAdminHandler.UserUsage)
	}
}

func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	// The gateway callback authenticates by mac, not by JWT
	v1.POST("/payments/zalopay/callback", c.PaymentHandler.Callback)

	payments := v1.Group("/payments", middleware.Auth(c.JWTManager))
	{
		payments.POST("/zalopay", c.PaymentHandler.Initiate)
		payments.GET("", c.PaymentHandler.History)
	}

	staff := v1.Group("/payments", middleware.Auth(c.JWTManager), middleware.RequireStaff())
	{
		staff.POST("/cash", c.PaymentHandler.SettleCash)
	}
}

// healthCheckHandler reports liveness of the API and its backing stores
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		status := gin.H{
			"status":   "ok",
			"database": "ok",
			"cache":    "ok",
		}
		healthy := true

		if err := c.DB.HealthCheck(checkCtx); err != nil {
			status["database"] = "unreachable"
			healthy = false
		}
		if err := c.Cache.Ping(checkCtx); err != nil {
			status["cache"] = "unreachable"
			healthy = false
		}

		if !healthy {
			status["status"] = "degraded"
			response.Error(ctx, http.StatusServiceUnavailable, "UNHEALTHY", "One or more dependencies are unreachable")
			return
		}
		response.Success(ctx, http.StatusOK, "Healthy", status)
	}
}

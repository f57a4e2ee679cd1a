package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/handler"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	billingHandler *handler.BillingHandler,
	adminHandler *handler.AdminHandler,
	adminToken string,
	gatherer prometheus.Gatherer,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// User routes
	userRoutes := router.Group("/users")
	{
		userRoutes.POST("/signup", billingHandler.Signup)
		userRoutes.GET("/:userId/balance", billingHandler.GetBalance)
		userRoutes.POST("/:userId/balance-check", billingHandler.BalanceCheck)
		userRoutes.POST("/:userId/topups", billingHandler.Topup)
		userRoutes.POST("/:userId/usage-charges", billingHandler.UsageCharge)
	}

	// Admin routes
	adminRoutes := router.Group("/admin", middleware.AdminAuth(adminToken))
	{
		adminRoutes.POST("/prices", adminHandler.SetPrice)
		adminRoutes.POST("/users/:userId/adjustments", adminHandler.Adjust)
		adminRoutes.POST("/invoices", adminHandler.RecordInvoice)
		adminRoutes.GET("/reconciliation", adminHandler.Reconciliation)
		adminRoutes.GET("/analytics", adminHandler.Analytics)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}

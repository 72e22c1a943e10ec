package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/khatapro/khata-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, outletHandler *OutletHandler, dayHandler *DayHandler, transactionHandler *TransactionHandler, allocationHandler *AllocationHandler, accountHandler *AccountHandler, closureHandler *ClosureHandler, customerHandler *CustomerHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(rateLimiter.Middleware())

	// Outlet routes
	outlets := api.Group("/outlets")
	outlets.GET("", outletHandler.List)
	outlets.GET("/:id", outletHandler.Get)

	// Business day routes
	days := api.Group("/days")
	days.GET("/today", dayHandler.GetToday)
	days.GET("", dayHandler.List)
	days.GET("/:year/:month/:day", dayHandler.GetByDate)
	days.POST("/:id/submit", dayHandler.Submit)
	days.POST("/:id/lock", dayHandler.Lock)
	days.POST("/:id/unlock", dayHandler.Unlock)
	days.POST("/:id/recompute", dayHandler.Recompute)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", transactionHandler.Create)
	transactions.GET("", transactionHandler.List)
	transactions.GET("/:id", transactionHandler.Get)
	transactions.DELETE("/:id", transactionHandler.Delete)
	transactions.POST("/:id/reverse", transactionHandler.Reverse)

	// Payment split preview
	api.POST("/payment-splits/preview", allocationHandler.Preview)

	// Chart of accounts routes
	accounts := api.Group("/ledger-accounts")
	accounts.GET("", accountHandler.List)
	accounts.POST("", accountHandler.Create)
	accounts.PATCH("/:id", accountHandler.Update)
	accounts.PATCH("/:id/status", accountHandler.SetStatus)
	accounts.DELETE("/:id", accountHandler.Delete)

	// Monthly closure routes
	closures := api.Group("/closures")
	closures.POST("", closureHandler.Close)
	closures.POST("/reopen", closureHandler.Reopen)
	closures.GET("/:year/:month", closureHandler.Get)
	closures.GET("/:year/:month/snapshots", closureHandler.ListSnapshots)
	closures.GET("/:year/:month/verify", closureHandler.Verify)

	// Customer routes
	customers := api.Group("/customers")
	customers.GET("", customerHandler.GetByPhone)
	customers.GET("/:id", customerHandler.Get)
}

package handler

import (
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, importLimiter *middleware.RateLimiter, transactionHandler *TransactionHandler, categoryHandler *CategoryHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/balance", transactionHandler.GetBalance)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/import", transactionHandler.ImportTransactions, middleware.RateLimitMiddleware(importLimiter))

	// Category routes
	categories := api.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.GetOrCreateCategory)

	// Realtime event stream
	e.GET("/ws", wsHandler.HandleWS)
}

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rupeeflow/bbps-backend/internal/server/handler"
	"github.com/rupeeflow/bbps-backend/internal/server/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	bbpsHandler *handler.BBPSHandler,
	walletHandler *handler.WalletHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		bbps := v1.Group("/bbps")
		{
			bbps.GET("/billers", bbpsHandler.ListBillers)
			bbps.POST("/bills/fetch", bbpsHandler.FetchBill)
			bbps.POST("/bills/validate", bbpsHandler.ValidateBill)
			bbps.POST("/bills/pay", bbpsHandler.PayBill)
			bbps.GET("/transactions/:id/status", bbpsHandler.TransactionStatus)
			bbps.POST("/complaints", bbpsHandler.RegisterComplaint)
			bbps.GET("/complaints/:id", bbpsHandler.TrackComplaint)
			bbps.POST("/plans", bbpsHandler.PullPlans)
		}

		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:userId", walletHandler.GetByUserID)
			wallets.GET("/:userId/entries", walletHandler.Entries)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.POST("/:id/refund", transactionHandler.Refund)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

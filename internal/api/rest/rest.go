package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/mintbay/registry/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Asset endpoints (public read access)
		v1.GET("/assets", handler.ListAssets)
		v1.GET("/assets/:id", handler.GetAsset)
		v1.GET("/assets/:id/events", handler.GetAssetEvents)

		// Asset mutations (requires authentication)
		v1.POST("/assets", middleware.Auth(authCfg), handler.CreateAsset)
		v1.POST("/assets/:id/transfer", middleware.Auth(authCfg), handler.TransferAsset)
		v1.POST("/assets/:id/burn", middleware.Auth(authCfg), handler.BurnAsset)
		v1.PUT("/assets/:id/metadata", middleware.Auth(authCfg), handler.UpdateAssetMetadata)
		v1.PUT("/assets/:id/royalty", middleware.Auth(authCfg), handler.SetAssetRoyalty)
		v1.POST("/assets/:id/listings", middleware.Auth(authCfg), handler.CreateListing)

		// Listing endpoints (public read access)
		v1.GET("/listings", handler.ListListings)
		v1.GET("/listings/:id", handler.GetListing)

		// Listing mutations (requires authentication)
		v1.POST("/listings/:id/purchase", middleware.Auth(authCfg), handler.PurchaseListing)
		v1.DELETE("/listings/:id", middleware.Auth(authCfg), handler.CancelListing)

		// Account endpoints (public read access)
		v1.GET("/accounts/:address", handler.GetAccount)

		// Deposits mint spendable balance, so they are operator-only
		v1.POST("/accounts/:address/deposit", middleware.APIKeyAuth(authCfg), handler.Deposit)
	}
}

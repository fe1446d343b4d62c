// internal/app/router.go
package app

import (
	membershipHandler "membership-service/internal/handlers/membership"
	orderHandler "membership-service/internal/handlers/order"
	subscriptionHandler "membership-service/internal/handlers/subscription"
	"membership-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	MembershipHandler   *membershipHandler.MembershipHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	OrderHandler        *orderHandler.OrderHandler
	APIKeyMiddleware    *middleware.APIKeyMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	requireKey := h.APIKeyMiddleware.Require()

	// ==================== Batch / Trigger Endpoints ====================
	// Kept at the engine root; external cron and payment collaborators
	// call these paths directly.
	r.POST("/subscription-renewal", requireKey, h.SubscriptionHandler.TriggerRenewal)
	r.POST("/archive-orders", requireKey, h.OrderHandler.ArchiveOrders)
	r.POST("/activate-membership", h.MembershipHandler.ActivateMembership)

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Membership Catalog ====================
	memberships := api.Group("/memberships")
	{
		memberships.GET("", h.MembershipHandler.ListMemberships)
		memberships.GET("/for-product", h.MembershipHandler.ListMembershipsForProduct) // ?product_id=xxx
		memberships.GET("/:id", h.MembershipHandler.GetMembership)

		// Admin catalog management
		membershipsAdmin := memberships.Group("")
		membershipsAdmin.Use(requireKey)
		{
			membershipsAdmin.POST("", h.MembershipHandler.CreateMembership)
			membershipsAdmin.PUT("/:id", h.MembershipHandler.UpdateMembership)
			membershipsAdmin.PUT("/:id/activate", h.MembershipHandler.ActivateCatalogEntry)
			membershipsAdmin.PUT("/:id/deactivate", h.MembershipHandler.DeactivateCatalogEntry)
		}
	}

	// ==================== Subscription Ledger ====================
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(requireKey)
	{
		subscriptions.GET("", h.SubscriptionHandler.ListSubscriptions) // ?user_id=xxx
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.POST("/:id/cancel", h.SubscriptionHandler.CancelSubscription)
	}
}

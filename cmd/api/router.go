package api

import (
	"net/http"

	identitydelivery "nexus-backend/internal/identity/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	// Google redirects here directly, outside the JSON API.
	r.GET("/oauth/google/callback", h.oauthHandler.Callback)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "environment": h.config.Environment})
	})

	api := r.Group("/api")
	api.Use(Throttle(h.ipLimiter), RequireJSON())
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.POST("/logout", h.authHandler.Logout)
			auth.GET("/me", h.authenticated(), h.authHandler.Me)
		}

		// Google connect flow (protected)
		oauth := api.Group("/oauth/google")
		oauth.Use(h.authenticated())
		{
			oauth.GET("/url", h.oauthHandler.GetAuthURL)
			oauth.GET("/status", h.oauthHandler.Status)
		}

		api.POST("/demo/access", h.workflowHandler.CreateDemoAccess)

		workflowLimit := identitydelivery.RateLimit(h.workflowCounter, h.logger)
		api.POST("/process-invoice", h.allowAnonymous(), workflowLimit, h.workflowHandler.ProcessInvoice)

		workflows := api.Group("/workflows")
		{
			// Demo and anonymous callers allowed
			workflows.GET("/client", h.allowAnonymous(), h.workflowHandler.GetClientInfo)
			workflows.POST("/execute", h.allowAnonymous(), workflowLimit, h.workflowHandler.Execute)

			// Account routes (protected)
			workflows.GET("", h.authenticated(), h.workflowHandler.ListWorkflows)
			workflows.GET("/invoice/preferences", h.authenticated(), h.workflowHandler.GetInvoicePreferences)
			workflows.PUT("/invoice/preferences", h.authenticated(), h.workflowHandler.SaveInvoicePreferences)
			workflows.GET("/invoice/files", h.authenticated(), h.workflowHandler.ListInvoiceFiles)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Route not found", "code": "NOT_FOUND"})
	})
}

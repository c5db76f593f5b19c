package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler, metrics http.Handler) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", gin.WrapH(metrics))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", handler.Analyze)   // POST /api/v1/analyze
		v1.POST("/classify", handler.Classify) // POST /api/v1/classify

		funnelGroup := v1.Group("/funnel")
		{
			funnelGroup.GET("/rules", handler.GetRules) // GET /api/v1/funnel/rules
		}
	}
}

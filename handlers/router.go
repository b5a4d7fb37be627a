package handlers

import (
	"time"

	"a11y_tracker/config"
	"a11y_tracker/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with middleware and every /api route.
func NewRouter(cfg config.ServerConfig, h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(log.WithComponent("http")))

	if cfg.CORS {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", idempotencyHeader, requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimit))
	}
	r.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/contrast", h.CheckContrast)

		api.POST("/scans", h.CreateScan)
		api.GET("/scans", h.ListScans)
		api.POST("/scans/:scan_id/issues", h.IngestIssues)

		api.GET("/issues", h.ListIssues)
		api.GET("/issues/:issue_id", h.GetIssue)
		api.PATCH("/issues/:issue_id", h.UpdateIssue)
		api.POST("/issues/:issue_id/comments", h.AddComment)
	}
	return r
}

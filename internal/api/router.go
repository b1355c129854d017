package api

import (
	"github.com/gin-gonic/gin"

	"docuchat/internal/config"
	"docuchat/pkg/logger"
	"docuchat/pkg/ratelimiter"
)

// SetupRouter configures the gin engine with all portal routes.
func SetupRouter(h *Handler, cfg *config.AppConfig, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.WithComponent("http")))

	if cfg.Middleware.RateLimiter.Enabled {
		limiter := ratelimiter.New(
			cfg.Middleware.RateLimiter.Algorithm,
			cfg.Middleware.RateLimiter.Rate,
			cfg.Middleware.RateLimiter.Burst,
		)
		r.Use(RateLimit(limiter))
	}

	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		documents := apiV1.Group("/documents")
		{
			documents.POST("/analyze", h.AnalyzeDocument)
			documents.POST("/compare", h.CompareDocuments)
		}

		indexes := apiV1.Group("/indexes")
		{
			indexes.POST("", h.CreateIndex)
			indexes.GET("", h.ListIndexes)
			indexes.DELETE("/:name", h.DeleteIndex)
			indexes.POST("/:name/documents", h.AddDocuments)
			indexes.POST("/:name/query", h.QueryIndex)
		}
	}

	return r
}

package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/corvidnet/netmgrd/internal/api/handlers"
	"github.com/corvidnet/netmgrd/internal/api/middleware"
	"github.com/corvidnet/netmgrd/internal/config"
)

// RegisterRoutes wires handlers onto the admin HTTP surface: health,
// listener/registry/audit observability, and the Swagger UI.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/netio/stats", h.NetioStats)
	api.GET("/registry/stats", h.RegistryStats)
	api.GET("/audit/recent", h.AuditRecent)
}

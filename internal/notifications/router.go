package notifications

import (
	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReleaseRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	releases := rg.Group("/releases")
	releases.Use(middleware.Authenticate(cfg))
	{
		releases.GET("/stream", controller.StreamReleases) // GET /api/v1/releases/stream?eventId=xxx
	}
}

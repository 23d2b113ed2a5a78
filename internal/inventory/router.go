package inventory

import (
	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupInventoryRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	ticketTypes := rg.Group("/ticket-types")
	ticketTypes.Use(middleware.Authenticate(cfg))
	{
		ticketTypes.GET("/:id/inventory", controller.GetInventory) // GET /api/v1/ticket-types/:id/inventory

		ticketTypes.POST("", middleware.RequireAdmin(cfg), controller.ProvisionTicketType) // POST /api/v1/ticket-types
	}
}

package holds

import (
	"sync"

	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidators sync.Once

// RegisterValidators adds the hold validation tags to gin's validator
func RegisterValidators() {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("holdstatus", func(fl validator.FieldLevel) bool {
				return Status(fl.Field().String()).IsValid()
			})
		}
	})
}

func SetupHoldRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	RegisterValidators()

	holds := rg.Group("/holds")
	holds.Use(middleware.Authenticate(cfg), middleware.RequireRoles(cfg, middleware.RoleUser, middleware.RoleAdmin))
	{
		holds.POST("", controller.CreateHold)              // POST /api/v1/holds
		holds.GET("/:id", controller.GetHold)              // GET /api/v1/holds/:id
		holds.POST("/:id/confirm", controller.ConfirmHold) // POST /api/v1/holds/:id/confirm
		holds.DELETE("/:id", controller.CancelHold)        // DELETE /api/v1/holds/:id
	}

	events := rg.Group("/events")
	events.Use(middleware.Authenticate(cfg), middleware.RequireRoles(cfg, middleware.RoleUser, middleware.RoleAdmin))
	{
		events.GET("/:eventId/holds", controller.ListHoldsByEvent) // GET /api/v1/events/:eventId/holds?status=active
	}
}

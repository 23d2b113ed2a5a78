// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketholds/internal/holds"
	"ticketholds/internal/inventory"
	"ticketholds/internal/notifications"
	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/database"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceName = "ticketholds"

// Services are the long-lived components the HTTP layer exposes
type Services struct {
	Pool        inventory.Pool
	Manager     *holds.Manager
	Hub         *notifications.Hub
	Idempotency *holds.IdempotencyStore
}

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	services Services
}

// NewRouter creates a new router instance. db may be nil when every
// backend is in memory.
func NewRouter(cfg *config.Config, db *database.DB, services Services) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		services: services,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupInventoryRoutes(api)
		r.setupHoldRoutes(api)
		r.setupReleaseRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":            "operational",
			"api_version":       r.config.APIVersion,
			"timestamp":         time.Now(),
			"hold_store":        r.config.Holds.StoreBackend,
			"inventory_backend": r.config.Holds.InventoryBackend,
			"max_hold_seconds":  int(r.services.Manager.MaxHoldDuration() / time.Second),
		}
		if r.services.Hub != nil {
			status["release_subscribers"] = r.services.Hub.Subscribers()
		}
		c.JSON(http.StatusOK, status)
	})
}

// setupInventoryRoutes configures ticket type provisioning and queries
func (r *Router) setupInventoryRoutes(rg *gin.RouterGroup) {
	inventoryController := inventory.NewController(r.services.Pool)
	inventory.SetupInventoryRoutes(rg, r.config, inventoryController)
}

// setupHoldRoutes configures the hold lifecycle routes
func (r *Router) setupHoldRoutes(rg *gin.RouterGroup) {
	holdController := holds.NewController(r.services.Manager, r.services.Idempotency)
	holds.SetupHoldRoutes(rg, r.config, holdController)
}

// setupReleaseRoutes configures the release event stream
func (r *Router) setupReleaseRoutes(rg *gin.RouterGroup) {
	if r.services.Hub == nil {
		return
	}
	releaseController := notifications.NewController(r.services.Hub)
	notifications.SetupReleaseRoutes(rg, r.config, releaseController)
}

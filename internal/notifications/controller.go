package notifications

import (
	"io"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	hub *Hub
}

func NewController(hub *Hub) *Controller {
	return &Controller{hub: hub}
}

// StreamReleases godoc
// @Summary      Stream release events
// @Description  Server-Sent Events feed of inventory returned to the pool by cancelled or expired holds
// @Tags         notifications
// @Produce      text/event-stream
// @Param        eventId  query  string  false  "Only stream releases for this event"
// @Success      200  {object}  ReleaseEvent
// @Router       /releases/stream [get]
func (c *Controller) StreamReleases(ctx *gin.Context) {
	events, unsubscribe := c.hub.Subscribe()
	defer unsubscribe()

	eventFilter := ctx.Query("eventId")

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if eventFilter != "" && event.EventID != eventFilter {
				return true
			}
			ctx.SSEvent("release", event)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

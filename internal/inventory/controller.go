package inventory

import (
	"errors"
	"net/http"

	"ticketholds/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	pool Pool
}

func NewController(pool Pool) *Controller {
	return &Controller{pool: pool}
}

// ProvisionTicketType godoc
// @Summary      Provision a ticket type
// @Description  Creates the inventory counters for a ticket type with available equal to total
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request  body      ProvisionRequest  true  "Ticket type"
// @Success      201      {object}  response.StandardApiResponse{data=InventoryResponse}
// @Failure      400      {object}  response.StandardApiResponse
// @Failure      409      {object}  response.StandardApiResponse
// @Router       /ticket-types [post]
func (c *Controller) ProvisionTicketType(ctx *gin.Context) {
	var req ProvisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	ticketTypeID := req.TicketTypeID
	if ticketTypeID == "" {
		ticketTypeID = uuid.NewString()
	}

	snapshot, err := c.pool.Provision(ctx.Request.Context(), ticketTypeID, req.EventID, *req.Total)
	if err != nil {
		response.RespondError(ctx, statusForError(err), "Failed to provision ticket type", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Ticket type provisioned successfully", snapshot.ToResponse(), nil)
}

// GetInventory godoc
// @Summary      Get ticket type inventory
// @Tags         inventory
// @Produce      json
// @Param        id   path      string  true  "Ticket type ID"
// @Success      200  {object}  response.StandardApiResponse{data=InventoryResponse}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /ticket-types/{id}/inventory [get]
func (c *Controller) GetInventory(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Ticket type ID is required", nil, "missing ticket type ID")
		return
	}

	snapshot, err := c.pool.Query(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, statusForError(err), "Failed to get inventory", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Inventory retrieved successfully", snapshot.ToResponse(), nil)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrTicketTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyProvisioned):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

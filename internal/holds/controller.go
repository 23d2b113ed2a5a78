package holds

import (
	"errors"
	"net/http"

	"ticketholds/internal/inventory"
	"ticketholds/internal/shared/middleware"
	"ticketholds/internal/shared/utils/response"
	"ticketholds/pkg/logger"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type Controller struct {
	manager     *Manager
	idempotency *IdempotencyStore
	logger      *logger.Logger
}

// NewController creates the hold controller. idempotency may be nil, in
// which case the Idempotency-Key header is ignored.
func NewController(manager *Manager, idempotency *IdempotencyStore) *Controller {
	return &Controller{
		manager:     manager,
		idempotency: idempotency,
		logger:      logger.GetDefault(),
	}
}

// CreateHold godoc
// @Summary      Create a hold
// @Description  Reserves quantity of a ticket type for a limited time
// @Tags         holds
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string             false  "Replays the original hold for repeated requests"
// @Param        request          body      CreateHoldRequest  true   "Hold request"
// @Success      201              {object}  response.StandardApiResponse{data=HoldResponse}
// @Failure      400              {object}  response.StandardApiResponse
// @Failure      404              {object}  response.StandardApiResponse
// @Failure      409              {object}  response.StandardApiResponse
// @Failure      503              {object}  response.StandardApiResponse
// @Router       /holds [post]
func (c *Controller) CreateHold(ctx *gin.Context) {
	var req CreateHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	input := req.toInput(middleware.UserID(ctx))
	log := c.logger.WithUserID(input.UserID)
	key := ctx.GetHeader(idempotencyHeader)
	useKey := key != "" && c.idempotency != nil

	if useKey {
		replay, claimed, err := c.idempotency.Begin(ctx.Request.Context(), key, input)
		switch {
		case errors.Is(err, ErrIdempotencyInProgress), errors.Is(err, ErrIdempotencyConflict):
			response.RespondError(ctx, http.StatusConflict, "Failed to create hold", err)
			return
		case err != nil:
			// The cache is an optimisation; carry on without replay protection
			log.WithError(err).WarnContext(ctx.Request.Context(), "Idempotency store unavailable")
			useKey = false
		case !claimed:
			ctx.Header("Idempotent-Replayed", "true")
			response.RespondJSON(ctx, "success", http.StatusCreated, "Hold created successfully", replay, nil)
			return
		}
	}

	hold, err := c.manager.CreateHold(ctx.Request.Context(), input)
	if err != nil {
		if useKey {
			if abandonErr := c.idempotency.Abandon(ctx.Request.Context(), key, input); abandonErr != nil {
				log.WithError(abandonErr).WarnContext(ctx.Request.Context(), "Failed to free idempotency key")
			}
		}
		c.respondError(ctx, "Failed to create hold", err)
		return
	}

	resp := hold.ToResponse()
	if useKey {
		if err := c.idempotency.Complete(ctx.Request.Context(), key, input, resp); err != nil {
			log.WithError(err).WarnContext(ctx.Request.Context(), "Failed to store idempotent response")
		}
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Hold created successfully", resp, nil)
}

// GetHold godoc
// @Summary      Get a hold
// @Tags         holds
// @Produce      json
// @Param        id   path      string  true  "Hold ID"
// @Success      200  {object}  response.StandardApiResponse{data=HoldResponse}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /holds/{id} [get]
func (c *Controller) GetHold(ctx *gin.Context) {
	id := ctx.Param("id")

	hold, err := c.manager.GetHold(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, "Failed to get hold", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold retrieved successfully", hold.ToResponse(), nil)
}

// ConfirmHold godoc
// @Summary      Confirm a hold
// @Description  Marks an active hold as sold
// @Tags         holds
// @Produce      json
// @Param        id   path      string  true  "Hold ID"
// @Success      200  {object}  response.StandardApiResponse{data=HoldResponse}
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /holds/{id}/confirm [post]
func (c *Controller) ConfirmHold(ctx *gin.Context) {
	id := ctx.Param("id")

	hold, err := c.manager.ConfirmHold(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, "Failed to confirm hold", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold confirmed successfully", hold.ToResponse(), nil)
}

// CancelHold godoc
// @Summary      Cancel a hold
// @Description  Returns an active hold's tickets to the pool
// @Tags         holds
// @Param        id   path  string  true  "Hold ID"
// @Success      204
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /holds/{id} [delete]
func (c *Controller) CancelHold(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := c.manager.CancelHold(ctx.Request.Context(), id); err != nil {
		c.respondError(ctx, "Failed to cancel hold", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ListHoldsByEvent godoc
// @Summary      List an event's holds
// @Tags         holds
// @Produce      json
// @Param        eventId  path      string  true   "Event ID"
// @Param        status   query     string  false  "active, confirmed, expired or cancelled"
// @Success      200      {object}  response.StandardApiResponse{data=[]HoldResponse}
// @Failure      400      {object}  response.StandardApiResponse
// @Router       /events/{eventId}/holds [get]
func (c *Controller) ListHoldsByEvent(ctx *gin.Context) {
	eventID := ctx.Param("eventId")

	var query ListHoldsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	var status *Status
	if query.Status != "" {
		s, err := ParseStatus(query.Status)
		if err != nil {
			c.respondError(ctx, "Invalid query parameters", err)
			return
		}
		status = &s
	}

	holds, err := c.manager.ListHoldsByEvent(ctx.Request.Context(), eventID, status)
	if err != nil {
		c.respondError(ctx, "Failed to list holds", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Holds retrieved successfully", toResponses(holds), nil)
}

func (c *Controller) respondError(ctx *gin.Context, message string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		c.logger.LogHTTPError(ctx, err, status)
	}
	response.RespondError(ctx, status, message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidStateTransition),
		errors.Is(err, inventory.ErrInsufficientInventory),
		errors.Is(err, inventory.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ErrHoldNotFound),
		errors.Is(err, inventory.ErrTicketTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

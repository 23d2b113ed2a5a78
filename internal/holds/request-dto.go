package holds

// CreateHoldRequest is the body of POST /holds. The duration bound here is
// only a sanity check; the manager enforces the configured maximum.
type CreateHoldRequest struct {
	EventID             string `json:"eventId" binding:"required,max=64"`
	TicketTypeID        string `json:"ticketTypeId" binding:"required,max=64"`
	Quantity            int    `json:"quantity" binding:"required,min=1"`
	UserID              string `json:"userId" binding:"omitempty,max=64"`
	HoldDurationSeconds int    `json:"holdDurationSeconds" binding:"required,gt=0"`
}

// ListHoldsQuery filters GET /events/:eventId/holds
type ListHoldsQuery struct {
	Status string `form:"status" binding:"omitempty,holdstatus"`
}

func (r CreateHoldRequest) toInput(userID string) CreateHoldInput {
	if userID == "" {
		userID = r.UserID
	}
	return CreateHoldInput{
		EventID:             r.EventID,
		TicketTypeID:        r.TicketTypeID,
		Quantity:            r.Quantity,
		UserID:              userID,
		HoldDurationSeconds: r.HoldDurationSeconds,
	}
}

package inventory

// ProvisionRequest creates the counters for a ticket type
type ProvisionRequest struct {
	TicketTypeID string `json:"ticketTypeId" binding:"omitempty,max=64"`
	EventID      string `json:"eventId" binding:"required,max=64"`
	Total        *int   `json:"total" binding:"required,min=0"`
}

package holds

import "time"

// HoldResponse is the public representation of a hold
type HoldResponse struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	TicketTypeID string    `json:"ticketTypeId"`
	Quantity     int       `json:"quantity"`
	UserID       string    `json:"userId"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToResponse converts a hold to its response DTO
func (h *Hold) ToResponse() HoldResponse {
	return HoldResponse{
		ID:           h.ID,
		EventID:      h.EventID,
		TicketTypeID: h.TicketTypeID,
		Quantity:     h.Quantity,
		UserID:       h.UserID,
		ExpiresAt:    h.ExpiresAt,
		Status:       h.Status,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

func toResponses(holds []Hold) []HoldResponse {
	responses := make([]HoldResponse, 0, len(holds))
	for i := range holds {
		responses = append(responses, holds[i].ToResponse())
	}
	return responses
}

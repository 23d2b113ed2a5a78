package inventory

// InventoryResponse is the public view of a ticket type's counters
type InventoryResponse struct {
	TicketTypeID string `json:"ticketTypeId"`
	EventID      string `json:"eventId"`
	Total        int    `json:"total"`
	Available    int    `json:"available"`
	Reserved     int    `json:"reserved"`
}

// ToResponse converts a snapshot to its response DTO
func (s Snapshot) ToResponse() InventoryResponse {
	return InventoryResponse{
		TicketTypeID: s.TicketTypeID,
		EventID:      s.EventID,
		Total:        s.Total,
		Available:    s.Available,
		Reserved:     s.Reserved(),
	}
}

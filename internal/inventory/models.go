package inventory

import "time"

// TicketInventory is the durable counter for one ticket type
type TicketInventory struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"ticketTypeId"`
	EventID   string    `gorm:"type:varchar(64);index;not null" json:"eventId"`
	Total     int       `gorm:"not null;check:chk_ticket_inventories_total,total >= 0" json:"total"`
	Available int       `gorm:"not null;check:chk_ticket_inventories_available,available >= 0" json:"available"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName sets the table name for TicketInventory
func (TicketInventory) TableName() string {
	return "ticket_inventories"
}

// Snapshot is a point-in-time read of a ticket type's counters.
// It may be stale as soon as it is returned.
type Snapshot struct {
	TicketTypeID string `json:"ticketTypeId"`
	EventID      string `json:"eventId"`
	Total        int    `json:"total"`
	Available    int    `json:"available"`
}

// Reserved returns the units currently held or sold
func (s Snapshot) Reserved() int {
	return s.Total - s.Available
}

func (t *TicketInventory) toSnapshot() Snapshot {
	return Snapshot{
		TicketTypeID: t.ID,
		EventID:      t.EventID,
		Total:        t.Total,
		Available:    t.Available,
	}
}

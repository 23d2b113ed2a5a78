package holds

import "time"

// Hold is one provisional reservation of ticket quantity. Rows are never
// deleted; terminal holds stay for audit.
type Hold struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	EventID      string    `gorm:"type:varchar(64);not null;index:idx_holds_event_status,priority:1" json:"eventId"`
	TicketTypeID string    `gorm:"type:varchar(64);not null;index" json:"ticketTypeId"`
	Quantity     int       `gorm:"not null;check:chk_holds_quantity,quantity >= 1" json:"quantity"`
	UserID       string    `gorm:"type:varchar(64);not null;default:''" json:"userId"`
	Status       Status    `gorm:"type:varchar(16);not null;default:'active';index:idx_holds_event_status,priority:2;index:idx_holds_status_expires,priority:1" json:"status"`
	ExpiresAt    time.Time `gorm:"not null;index:idx_holds_status_expires,priority:2" json:"expiresAt"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName sets the table name for Hold
func (Hold) TableName() string {
	return "holds"
}

// IsExpiredAt reports whether the hold's deadline has passed at now
func (h *Hold) IsExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

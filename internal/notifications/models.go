package notifications

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReleaseReason says why units went back to the pool
type ReleaseReason string

const (
	ReasonCancelled ReleaseReason = "cancelled"
	ReasonExpired   ReleaseReason = "expired"
)

// ReleaseEvent is broadcast whenever a hold returns inventory to the pool
type ReleaseEvent struct {
	EventID      string        `json:"eventId"`
	TicketTypeID string        `json:"ticketTypeId"`
	Quantity     int           `json:"quantity"`
	Timestamp    time.Time     `json:"timestamp"`
	HoldID       string        `json:"holdId,omitempty"`
	Reason       ReleaseReason `json:"reason,omitempty"`
}

// ToJSON converts the event to JSON bytes
func (e ReleaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON populates the event from JSON bytes
func (e *ReleaseEvent) FromJSON(data []byte) error {
	return json.Unmarshal(data, e)
}

// PartitionKey keeps every release for one ticket type on the same partition
func (e ReleaseEvent) PartitionKey() string {
	return e.TicketTypeID
}

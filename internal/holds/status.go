package holds

import "fmt"

// Status represents the lifecycle state of a hold
type Status string

const (
	StatusActive    Status = "active"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusConfirmed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status can never change again
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusExpired || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a query value into a Status
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, value)
	}
	return s, nil
}

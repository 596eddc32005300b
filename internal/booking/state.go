package booking

import "fmt"

// Booking status values stored in bookings.status.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// transitions is the explicit state machine for booking statuses.
// PENDING is the initial state; CANCELLED and COMPLETED are terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Active reports whether a booking in status s counts toward availability
// conflicts (PENDING or CONFIRMED).
func Active(s string) bool {
	return s == StatusPending || s == StatusConfirmed
}

// ErrInvalidTransition is returned by CanTransition when the requested
// status change is not in the transition table.
type ErrInvalidTransition struct {
	From, To string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// CanTransition validates a status change against the transition table.
// It returns nil when the change is allowed and *ErrInvalidTransition
// otherwise, including self-transitions and moves out of terminal states.
func CanTransition(from, to string) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &ErrInvalidTransition{From: from, To: to}
}

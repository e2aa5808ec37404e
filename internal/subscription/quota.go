package subscription

import (
	"fmt"
)

// QuotaExceededError carries enough context for the UI to explain the denial.
type QuotaExceededError struct {
	Kind  string // "event" or "guest"
	Limit int
	Used  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Kind, e.Used, e.Limit)
}

// CanCreateEvent is the advisory pre-check for event creation. The
// authoritative re-check runs inside the creating transaction.
func CanCreateEvent(sub *Subscription) bool {
	return sub.EventsUsed < sub.EventLimit
}

// CanAddGuest is the advisory pre-check for adding a guest to an event.
func CanAddGuest(sub *Subscription, currentGuestCount int) bool {
	return currentGuestCount < sub.GuestLimit
}

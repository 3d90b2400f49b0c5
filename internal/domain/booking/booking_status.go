package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusAssigned   BookingStatus = "assigned"
	StatusInProgress BookingStatus = "in-progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Actor is the relationship a principal has to a particular booking.
type Actor string

const (
	ActorOwner          Actor = "owner"
	ActorAssignedWorker Actor = "assigned_worker"
	ActorAdmin          Actor = "admin"
)

// transitionRule lists the statuses reachable from a status through the
// status transition engine and the actors allowed to request them.
type transitionRule struct {
	next   []BookingStatus
	actors []Actor
}

// validTransitions is the lifecycle table for explicit status changes.
// pending->assigned is absent: it is only reachable through a claim.
var validTransitions = map[BookingStatus]transitionRule{
	StatusPending: {
		next:   []BookingStatus{StatusCancelled},
		actors: []Actor{ActorOwner, ActorAdmin},
	},
	StatusAssigned: {
		next:   []BookingStatus{StatusInProgress, StatusCancelled},
		actors: []Actor{ActorAssignedWorker, ActorAdmin},
	},
	StatusInProgress: {
		next:   []BookingStatus{StatusCompleted, StatusCancelled},
		actors: []Actor{ActorAssignedWorker, ActorAdmin},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	rule, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range rule.next {
		if t == target {
			return true
		}
	}
	return false
}

// PermitsActor returns true if the given actor may move a booking out of this status.
func (s BookingStatus) PermitsActor(actor Actor) bool {
	for _, a := range validTransitions[s].actors {
		if a == actor {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	rule, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(rule.next) == 0
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// AllStatuses returns every lifecycle status in declaration order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled}
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

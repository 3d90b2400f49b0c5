// Package identity describes the authenticated actors supplied by the
// Identity service and the worker availability it owns.
package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is the marketplace role of a principal.
type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated actor making a request.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the principal is an admin.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Availability is a worker's willingness to take new jobs.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
)

// ParseAvailability converts a string to an Availability.
func ParseAvailability(s string) (Availability, error) {
	switch a := Availability(s); a {
	case AvailabilityAvailable, AvailabilityBusy:
		return a, nil
	}
	return "", fmt.Errorf("invalid availability status: %s", s)
}

// AvailabilityReader is the read-only view of worker availability used by the
// assignment engine. Implementations return AvailabilityAvailable for workers
// they have no record of.
type AvailabilityReader interface {
	GetAvailability(ctx context.Context, workerID uuid.UUID) (Availability, error)
}

// AvailabilityWriter updates the locally held copy of worker availability.
// Only the identity event consumer writes through it.
type AvailabilityWriter interface {
	SetAvailability(ctx context.Context, workerID uuid.UUID, status Availability) error
}

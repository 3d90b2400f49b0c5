package booking

import (
	"context"

	"github.com/google/uuid"
)

// Expectation is the precondition of a conditional update: the booking must
// still be in Status, with a worker present iff WorkerAssigned.
type Expectation struct {
	Status         BookingStatus
	WorkerAssigned bool
}

// Patch is the change applied by a conditional update. A nil WorkerID leaves
// the worker untouched; workers are never cleared.
type Patch struct {
	Status   BookingStatus
	WorkerID *uuid.UUID
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindPendingUnassigned retrieves claimable bookings, earliest event first.
	FindPendingUnassigned(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// FindByClientID retrieves bookings owned by a client, newest first.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByWorkerID retrieves bookings claimed by a worker, earliest event first.
	FindByWorkerID(ctx context.Context, workerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ConditionalUpdate atomically applies patch if the stored booking still
	// matches exp, returning the updated booking. It returns a NotFound error
	// for unknown IDs and a Conflict error when the expectation no longer holds.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, exp Expectation, patch Patch) (*Booking, error)
}

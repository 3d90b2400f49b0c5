package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicWorkerEvents  = "worker.events"
)

// Event types.
const (
	BookingCreated            = "booking.created"
	BookingAssigned           = "booking.assigned"
	BookingStatusChanged      = "booking.status_changed"
	WorkerAvailabilityChanged = "worker.availability_changed"
)

// BookingCreatedEvent is published when a client places a booking.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	ClientID        uuid.UUID `json:"client_id"`
	EventDate       time.Time `json:"event_date"`
	GuestCount      int       `json:"guest_count"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingAssignedEvent is published when a worker wins a claim.
type BookingAssignedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ClientID      uuid.UUID `json:"client_id"`
	WorkerID      uuid.UUID `json:"worker_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after every explicit status transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	ClientID      uuid.UUID  `json:"client_id"`
	WorkerID      *uuid.UUID `json:"worker_id,omitempty"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	ChangedBy     uuid.UUID  `json:"changed_by"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// WorkerAvailabilityChangedEvent is published by the Identity service.
type WorkerAvailabilityChangedEvent struct {
	WorkerID   uuid.UUID `json:"worker_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

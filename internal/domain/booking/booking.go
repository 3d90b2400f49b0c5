package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultCurrency is the currency all menu prices are quoted in.
const DefaultCurrency = "USD"

// EventDetails describes the catered event a client is booking for.
type EventDetails struct {
	EventDate       time.Time
	EventTime       string
	Location        string
	GuestCount      int
	SpecialRequests string
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	clientID      uuid.UUID
	workerID      *uuid.UUID
	status        BookingStatus
	lineItems     []LineItem

	eventDate       time.Time
	eventTime       string
	location        string
	guestCount      int
	specialRequests string

	totalPriceCents int64
	currency        string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "CT-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "CT-" + string(result), nil
}

// NewBooking creates a new pending Booking from a resolved quote.
func NewBooking(clientID uuid.UUID, details EventDetails, quote Quote) (*Booking, error) {
	if clientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}
	if details.EventDate.IsZero() {
		return nil, domain.NewValidationError("event date is required")
	}
	if strings.TrimSpace(details.EventTime) == "" {
		return nil, domain.NewValidationError("event time is required")
	}
	location := strings.TrimSpace(details.Location)
	if location == "" {
		return nil, domain.NewValidationError("location is required")
	}
	if details.GuestCount < 1 {
		return nil, domain.NewValidationError("guest count must be at least 1")
	}
	if len(quote.LineItems) == 0 {
		return nil, domain.NewValidationError("at least one menu item is required")
	}
	if quote.TotalCents < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, len(quote.LineItems))
	copy(items, quote.LineItems)

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		clientID:        clientID,
		status:          StatusPending,
		lineItems:       items,
		eventDate:       details.EventDate.UTC(),
		eventTime:       strings.TrimSpace(details.EventTime),
		location:        location,
		guestCount:      details.GuestCount,
		specialRequests: strings.TrimSpace(details.SpecialRequests),
		totalPriceCents: quote.TotalCents,
		currency:        DefaultCurrency,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	clientID uuid.UUID,
	workerID *uuid.UUID,
	status BookingStatus,
	lineItems []LineItem,
	details EventDetails,
	totalPriceCents int64,
	currency string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		clientID:        clientID,
		workerID:        workerID,
		status:          status,
		lineItems:       lineItems,
		eventDate:       details.EventDate,
		eventTime:       details.EventTime,
		location:        details.Location,
		guestCount:      details.GuestCount,
		specialRequests: details.SpecialRequests,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ClientID returns the owning client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// WorkerID returns the assigned worker's user ID, or nil if never claimed.
func (b *Booking) WorkerID() *uuid.UUID { return b.workerID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// LineItems returns a copy of the priced menu selections.
func (b *Booking) LineItems() []LineItem {
	items := make([]LineItem, len(b.lineItems))
	copy(items, b.lineItems)
	return items
}

// EventDetails returns the event the booking caters.
func (b *Booking) EventDetails() EventDetails {
	return EventDetails{
		EventDate:       b.eventDate,
		EventTime:       b.eventTime,
		Location:        b.location,
		GuestCount:      b.guestCount,
		SpecialRequests: b.specialRequests,
	}
}

// EventDate returns the event date.
func (b *Booking) EventDate() time.Time { return b.eventDate }

// TotalPriceCents returns the total fixed at creation.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// Version returns the entity version, bumped on every store update.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsAssignedTo reports whether workerID is the booking's worker.
func (b *Booking) IsAssignedTo(workerID uuid.UUID) bool {
	return b.workerID != nil && *b.workerID == workerID
}

// IsClaimable reports whether a worker may still claim the booking.
func (b *Booking) IsClaimable() bool {
	return b.status == StatusPending && b.workerID == nil
}

// Matches reports whether the booking satisfies a conditional-update expectation.
func (b *Booking) Matches(exp Expectation) bool {
	return b.status == exp.Status && (b.workerID != nil) == exp.WorkerAssigned
}

// Apply mutates the booking with a store patch. Stores that keep aggregates
// in memory call it after Matches succeeded.
func (b *Booking) Apply(p Patch, at time.Time) {
	if p.WorkerID != nil {
		w := *p.WorkerID
		b.workerID = &w
	}
	b.status = p.Status
	b.version++
	b.updatedAt = at.UTC()
}

// Clone returns a deep copy of the booking.
func (b *Booking) Clone() *Booking {
	c := *b
	c.lineItems = b.LineItems()
	if b.workerID != nil {
		w := *b.workerID
		c.workerID = &w
	}
	return &c
}

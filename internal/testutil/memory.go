// Package testutil provides in-memory collaborators for unit tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/platterhub/service-booking/internal/events"
)

// BookingRepository is a BookingRepository whose ConditionalUpdate is atomic
// under a mutex.
type BookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking

	// BeforeUpdate runs ahead of every conditional update, outside the lock.
	BeforeUpdate func()
}

// NewBookingRepository returns an empty BookingRepository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

// Save stores a copy of b.
func (r *BookingRepository) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b.Clone()
	return nil
}

// FindByID returns a copy of the booking or a NOT_FOUND error.
func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return b.Clone(), nil
}

func (r *BookingRepository) filter(keep func(*bookingDomain.Booking) bool, less func(a, b *bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total
}

func byEventDate(a, b *bookingDomain.Booking) bool { return a.EventDate().Before(b.EventDate()) }
func byNewest(a, b *bookingDomain.Booking) bool   { return a.CreatedAt().After(b.CreatedAt()) }

// FindPendingUnassigned pages pending bookings without a worker, soonest event first.
func (r *BookingRepository) FindPendingUnassigned(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	items, total := r.filter(func(b *bookingDomain.Booking) bool { return b.IsClaimable() }, byEventDate, page, limit)
	return items, total, nil
}

// FindByClientID pages the client's bookings, newest first.
func (r *BookingRepository) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	items, total := r.filter(func(b *bookingDomain.Booking) bool { return b.ClientID() == clientID }, byNewest, page, limit)
	return items, total, nil
}

// FindByWorkerID pages the worker's bookings, soonest event first.
func (r *BookingRepository) FindByWorkerID(_ context.Context, workerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	items, total := r.filter(func(b *bookingDomain.Booking) bool { return b.IsAssignedTo(workerID) }, byEventDate, page, limit)
	return items, total, nil
}

// ListAll pages every booking, newest first.
func (r *BookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	items, total := r.filter(func(*bookingDomain.Booking) bool { return true }, byNewest, page, limit)
	return items, total, nil
}

// CountByStatus counts stored bookings per status.
func (r *BookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// ConditionalUpdate applies patch only when the stored booking matches exp.
func (r *BookingRepository) ConditionalUpdate(_ context.Context, id uuid.UUID, exp bookingDomain.Expectation, patch bookingDomain.Patch) (*bookingDomain.Booking, error) {
	if r.BeforeUpdate != nil {
		r.BeforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	if !b.Matches(exp) {
		return nil, domain.NewConflictError("booking was modified concurrently")
	}
	b.Apply(patch, time.Now().UTC())
	return b.Clone(), nil
}

// Force moves a stored booking into status, bypassing the engines.
func (r *BookingRepository) Force(id uuid.UUID, status bookingDomain.BookingStatus, workerID *uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[id].Apply(bookingDomain.Patch{Status: status, WorkerID: workerID}, time.Now().UTC())
}

// Availability is an in-memory worker availability store.
type Availability struct {
	mu     sync.Mutex
	status map[uuid.UUID]identity.Availability
}

// NewAvailability returns a store where every worker is available.
func NewAvailability() *Availability {
	return &Availability{status: make(map[uuid.UUID]identity.Availability)}
}

// GetAvailability returns the worker's status, defaulting to available.
func (a *Availability) GetAvailability(_ context.Context, workerID uuid.UUID) (identity.Availability, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.status[workerID]; ok {
		return s, nil
	}
	return identity.AvailabilityAvailable, nil
}

// SetAvailability records the worker's status.
func (a *Availability) SetAvailability(_ context.Context, workerID uuid.UUID, s identity.Availability) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status[workerID] = s
	return nil
}

// Catalog is an in-memory menu.
type Catalog struct {
	mu    sync.Mutex
	items map[uuid.UUID]catalog.Item
}

// NewCatalog returns a Catalog holding items.
func NewCatalog(items ...catalog.Item) *Catalog {
	c := &Catalog{items: make(map[uuid.UUID]catalog.Item)}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

// Lookup returns the menu item or a NOT_FOUND error.
func (c *Catalog) Lookup(_ context.Context, id uuid.UUID) (catalog.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return catalog.Item{}, domain.NewNotFoundError("menu item", id.String())
	}
	return it, nil
}

// Put adds or replaces a menu item.
func (c *Catalog) Put(it catalog.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.ID] = it
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []events.CloudEvent
}

// PublishEvent records ce.
func (p *Publisher) PublishEvent(_ context.Context, _ string, ce events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }

// Types returns the types of the published events in order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

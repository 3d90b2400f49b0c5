package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/stretchr/testify/assert"
)

func fixtureBooking(clientID uuid.UUID, workerID *uuid.UUID, status BookingStatus) *Booking {
	now := time.Now().UTC()
	return ReconstructBooking(
		uuid.New(), "CT-TEST01", clientID, workerID, status,
		[]LineItem{{CatalogItemID: uuid.New(), Quantity: 1, UnitPriceCents: 1000}},
		EventDetails{EventDate: now.Add(48 * time.Hour), EventTime: "18:00", Location: "Hall", GuestCount: 10},
		1000, DefaultCurrency, 1, now, now,
	)
}

func TestCanView(t *testing.T) {
	client := identity.Principal{ID: uuid.New(), Role: identity.RoleClient}
	otherClient := identity.Principal{ID: uuid.New(), Role: identity.RoleClient}
	worker := identity.Principal{ID: uuid.New(), Role: identity.RoleWorker}
	otherWorker := identity.Principal{ID: uuid.New(), Role: identity.RoleWorker}
	admin := identity.Principal{ID: uuid.New(), Role: identity.RoleAdmin}
	stranger := identity.Principal{ID: uuid.New(), Role: identity.Role("guest")}

	pending := fixtureBooking(client.ID, nil, StatusPending)
	assigned := fixtureBooking(client.ID, &worker.ID, StatusAssigned)

	tests := []struct {
		name string
		p    identity.Principal
		b    *Booking
		want bool
	}{
		{"owner sees pending", client, pending, true},
		{"owner sees assigned", client, assigned, true},
		{"other client blocked", otherClient, pending, false},
		{"worker sees claimable pool", otherWorker, pending, true},
		{"assigned worker sees job", worker, assigned, true},
		{"other worker blocked from assigned job", otherWorker, assigned, false},
		{"admin sees all", admin, assigned, true},
		{"unknown role blocked", stranger, pending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.p, tt.b))
		})
	}
}

func TestCanMutateStatus(t *testing.T) {
	client := identity.Principal{ID: uuid.New(), Role: identity.RoleClient}
	otherClient := identity.Principal{ID: uuid.New(), Role: identity.RoleClient}
	worker := identity.Principal{ID: uuid.New(), Role: identity.RoleWorker}
	otherWorker := identity.Principal{ID: uuid.New(), Role: identity.RoleWorker}
	admin := identity.Principal{ID: uuid.New(), Role: identity.RoleAdmin}

	tests := []struct {
		name      string
		p         identity.Principal
		b         *Booking
		requested BookingStatus
		want      bool
	}{
		{"owner cancels pending", client, fixtureBooking(client.ID, nil, StatusPending), StatusCancelled, true},
		{"other client cancels pending", otherClient, fixtureBooking(client.ID, nil, StatusPending), StatusCancelled, false},
		{"owner cancels assigned", client, fixtureBooking(client.ID, &worker.ID, StatusAssigned), StatusCancelled, false},
		{"owner starts assigned", client, fixtureBooking(client.ID, &worker.ID, StatusAssigned), StatusInProgress, false},
		{"owner cancels completed is left to the table", client, fixtureBooking(client.ID, &worker.ID, StatusCompleted), StatusCancelled, true},
		{"assigned worker starts", worker, fixtureBooking(client.ID, &worker.ID, StatusAssigned), StatusInProgress, true},
		{"assigned worker completes", worker, fixtureBooking(client.ID, &worker.ID, StatusInProgress), StatusCompleted, true},
		{"other worker starts", otherWorker, fixtureBooking(client.ID, &worker.ID, StatusAssigned), StatusInProgress, false},
		{"worker cancels unclaimed pending", worker, fixtureBooking(client.ID, nil, StatusPending), StatusCancelled, false},
		{"admin cancels pending", admin, fixtureBooking(client.ID, nil, StatusPending), StatusCancelled, true},
		{"admin completes in-progress", admin, fixtureBooking(client.ID, &worker.ID, StatusInProgress), StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutateStatus(tt.p, tt.b, tt.requested))
		})
	}
}

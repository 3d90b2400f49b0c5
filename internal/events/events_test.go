package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain/identity"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCloudEvent_RoundTrip(t *testing.T) {
	bookingID := uuid.New()
	ce, err := NewCloudEvent("service-booking", BookingAssigned, bookingID.String(), BookingAssignedEvent{
		BookingID: bookingID,
		WorkerID:  uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0", ce.SpecVersion)
	assert.NotEmpty(t, ce.ID)

	raw, err := json.Marshal(ce)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, BookingAssigned, parsed.Type)
	assert.Equal(t, bookingID.String(), parsed.Subject)

	var evt BookingAssignedEvent
	require.NoError(t, parsed.ParseData(&evt))
	assert.Equal(t, bookingID, evt.BookingID)
}

func TestParseCloudEvent_Malformed(t *testing.T) {
	_, err := ParseCloudEvent([]byte("{not json"))
	assert.Error(t, err)
}

type availabilityWrites struct {
	writes map[uuid.UUID]identity.Availability
	err    error
}

func (a *availabilityWrites) SetAvailability(_ context.Context, workerID uuid.UUID, s identity.Availability) error {
	if a.err != nil {
		return a.err
	}
	a.writes[workerID] = s
	return nil
}

func availabilityEvent(t *testing.T, workerID uuid.UUID, status string) CloudEvent {
	t.Helper()
	ce, err := NewCloudEvent("service-identity", WorkerAvailabilityChanged, workerID.String(), WorkerAvailabilityChangedEvent{
		WorkerID:   workerID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return ce
}

func TestAvailabilityConsumer_HandleEvent(t *testing.T) {
	store := &availabilityWrites{writes: map[uuid.UUID]identity.Availability{}}
	c := &AvailabilityConsumer{store: store, logger: zap.NewNop()}
	ctx := context.Background()
	w := uuid.New()

	require.NoError(t, c.HandleEvent(ctx, availabilityEvent(t, w, "busy")))
	assert.Equal(t, identity.AvailabilityBusy, store.writes[w])

	require.NoError(t, c.HandleEvent(ctx, availabilityEvent(t, w, "available")))
	assert.Equal(t, identity.AvailabilityAvailable, store.writes[w])

	// Unknown statuses and event types are dropped.
	require.NoError(t, c.HandleEvent(ctx, availabilityEvent(t, w, "sleeping")))
	assert.Equal(t, identity.AvailabilityAvailable, store.writes[w])

	other, err := NewCloudEvent("service-identity", "worker.registered", w.String(), map[string]string{})
	require.NoError(t, err)
	require.NoError(t, c.HandleEvent(ctx, other))
	assert.Len(t, store.writes, 1)
}

func TestAvailabilityConsumer_StoreFailureIsRetried(t *testing.T) {
	store := &availabilityWrites{err: errors.New("redis down")}
	c := &AvailabilityConsumer{store: store, logger: zap.NewNop()}

	err := c.HandleEvent(context.Background(), availabilityEvent(t, uuid.New(), "busy"))
	assert.Error(t, err)
}

func TestAvailabilityConsumer_MalformedMessageSkipped(t *testing.T) {
	c := &AvailabilityConsumer{store: &availabilityWrites{}, logger: zap.NewNop()}
	err := c.handleMessage(context.Background(), kafkago.Message{Value: []byte("garbage")})
	assert.NoError(t, err)
}

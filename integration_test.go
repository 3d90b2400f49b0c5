//go:build integration

package main_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/application"
	"github.com/platterhub/service-booking/internal/domain"
	"github.com/platterhub/service-booking/internal/domain/identity"
	bookingEvents "github.com/platterhub/service-booking/internal/events"
	"github.com/platterhub/service-booking/internal/repository"
	"github.com/platterhub/service-booking/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func client() identity.Principal { return identity.Principal{ID: uuid.New(), Role: identity.RoleClient} }
func worker() identity.Principal { return identity.Principal{ID: uuid.New(), Role: identity.RoleWorker} }

// raceClaims fires n concurrent claims for bookingID from distinct workers
// and returns the winners and the error codes of the losers.
func raceClaims(t *testing.T, svc *application.BookingService, bookingID uuid.UUID, n int) ([]uuid.UUID, []domain.ErrorCode) {
	t.Helper()
	var (
		mu      sync.Mutex
		winners []uuid.UUID
		codes   []domain.ErrorCode
		wg      sync.WaitGroup
		start   = make(chan struct{})
	)
	for i := 0; i < n; i++ {
		w := uuid.New()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.ClaimJob(context.Background(), w, bookingID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, w)
				return
			}
			code, _ := domain.CodeOf(err)
			codes = append(codes, code)
		}()
	}
	close(start)
	wg.Wait()
	return winners, codes
}

func assertSingleWinner(t *testing.T, winners []uuid.UUID, codes []domain.ErrorCode, n int) {
	t.Helper()
	require.Len(t, winners, 1, "exactly one claim must succeed")
	assert.Len(t, codes, n-1)
	for _, c := range codes {
		assert.Equal(t, domain.CodeAlreadyAssigned, c)
	}
}

// TestPostgres_ClaimRace verifies that concurrent claims against PostgreSQL
// assign the booking to exactly one worker.
func TestPostgres_ClaimRace(t *testing.T) {
	db := setupPostgres(t)
	rdb := setupRedis(t)

	repo := repository.NewGormBookingRepository(db)
	svc := newService(repo, repository.NewGormCatalog(db), rdb, bookingEvents.NoopPublisher{})
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, client().ID, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(3*1500+2*500), created.TotalPriceCents)

	const claimants = 16
	winners, codes := raceClaims(t, svc, created.ID, claimants)
	assertSingleWinner(t, winners, codes, claimants)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "assigned", string(stored.Status()))
	require.NotNil(t, stored.WorkerID())
	assert.Equal(t, winners[0], *stored.WorkerID())
	assert.Equal(t, int64(2), stored.Version())
}

// TestPostgres_CreateRejectsUnavailableItem verifies nothing is stored when
// the selection references an unorderable menu item.
func TestPostgres_CreateRejectsUnavailableItem(t *testing.T) {
	db := setupPostgres(t)
	rdb := setupRedis(t)
	svc := newService(repository.NewGormBookingRepository(db), repository.NewGormCatalog(db), rdb, bookingEvents.NoopPublisher{})

	req := bookingRequest()
	req.Items = append(req.Items, application.RequestedItemDTO{MenuItemID: menuOyster.ID, Quantity: 1})

	owner := client()
	_, err := svc.CreateBooking(context.Background(), owner.ID, req)
	assert.True(t, errors.Is(err, domain.ErrItemUnavailable))

	mine, err := svc.ListMyBookings(context.Background(), owner, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), mine.Total)
}

// TestPostgres_LifecycleEmitsEvents walks a booking from creation to
// completion and checks every step is published to booking.events.
func TestPostgres_LifecycleEmitsEvents(t *testing.T) {
	db := setupPostgres(t)
	rdb := setupRedis(t)
	brokers := setupKafka(t)

	publisher := bookingEvents.NewKafkaPublisher(brokers, zap.NewNop())
	defer func() { _ = publisher.Close() }()

	svc := newService(repository.NewGormBookingRepository(db), repository.NewGormCatalog(db), rdb, publisher)
	ctx := context.Background()
	owner, w := client(), worker()

	created, err := svc.CreateBooking(ctx, owner.ID, bookingRequest())
	require.NoError(t, err)

	available, err := svc.ListAvailableJobs(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, available.Items, 1)

	_, err = svc.ClaimJob(ctx, w.ID, created.ID)
	require.NoError(t, err)

	// Owners cannot drive an assigned booking forward.
	_, err = svc.SetStatus(ctx, owner, created.ID, "in-progress")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = svc.SetStatus(ctx, w, created.ID, "in-progress")
	require.NoError(t, err)
	done, err := svc.SetStatus(ctx, w, created.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, int64(4), done.Version)

	_, err = svc.SetStatus(ctx, w, created.ID, "cancelled")
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))

	subject := created.ID.String()
	ce := consumeOneEvent(t, brokers, bookingEvents.TopicBookingEvents, bookingEvents.BookingCreated, subject, 15*time.Second)
	var createdEvt bookingEvents.BookingCreatedEvent
	require.NoError(t, ce.ParseData(&createdEvt))
	assert.Equal(t, owner.ID, createdEvt.ClientID)
	assert.Equal(t, created.TotalPriceCents, createdEvt.TotalPriceCents)

	ce = consumeOneEvent(t, brokers, bookingEvents.TopicBookingEvents, bookingEvents.BookingAssigned, subject, 15*time.Second)
	var assigned bookingEvents.BookingAssignedEvent
	require.NoError(t, ce.ParseData(&assigned))
	assert.Equal(t, w.ID, assigned.WorkerID)

	ce = consumeOneEvent(t, brokers, bookingEvents.TopicBookingEvents, bookingEvents.BookingStatusChanged, subject, 15*time.Second)
	var changed bookingEvents.BookingStatusChangedEvent
	require.NoError(t, ce.ParseData(&changed))
	assert.Equal(t, "assigned", changed.From)
	assert.Equal(t, "in-progress", changed.To)
}

// TestMongo_ClaimRaceAndLifecycle runs the claim race and a cancellation on
// the MongoDB store.
func TestMongo_ClaimRaceAndLifecycle(t *testing.T) {
	mdb := setupMongo(t)
	rdb := setupRedis(t)

	repo := repository.NewMongoBookingRepository(mdb)
	svc := newService(repo, repository.NewMongoCatalog(mdb), rdb, bookingEvents.NoopPublisher{})
	ctx := context.Background()
	owner := client()

	created, err := svc.CreateBooking(ctx, owner.ID, bookingRequest())
	require.NoError(t, err)

	const claimants = 16
	winners, codes := raceClaims(t, svc, created.ID, claimants)
	assertSingleWinner(t, winners, codes, claimants)

	w := identity.Principal{ID: winners[0], Role: identity.RoleWorker}
	jobs, err := svc.GetWorkerJobs(ctx, w.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, jobs.Items, 1)

	cancelled, err := svc.SetStatus(ctx, w, created.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.WorkerID)
	assert.Equal(t, w.ID, *cancelled.WorkerID)

	stats, err := svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByStatus["cancelled"])

	_, err = svc.GetBooking(ctx, client(), created.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// TestAvailabilityConsumer_BlocksBusyWorker verifies that a worker reported
// busy on worker.events can no longer claim jobs.
func TestAvailabilityConsumer_BlocksBusyWorker(t *testing.T) {
	rdb := setupRedis(t)
	brokers := setupKafka(t)

	availability := repository.NewRedisAvailabilityStore(rdb)
	consumer := bookingEvents.NewAvailabilityConsumer(brokers, "test-booking-"+uuid.New().String()[:8], availability, zap.NewNop())
	defer func() { _ = consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()

	w := worker()
	ce, err := bookingEvents.NewCloudEvent("service-identity", bookingEvents.WorkerAvailabilityChanged, w.ID.String(),
		bookingEvents.WorkerAvailabilityChangedEvent{WorkerID: w.ID, Status: "busy", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)

	producer := bookingEvents.NewKafkaPublisher(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()
	require.NoError(t, producer.PublishEvent(context.Background(), bookingEvents.TopicWorkerEvents, ce))

	require.Eventually(t, func() bool {
		status, err := availability.GetAvailability(context.Background(), w.ID)
		return err == nil && status == identity.AvailabilityBusy
	}, 20*time.Second, 200*time.Millisecond, "availability was not updated")

	menu := testutil.NewCatalog()
	menu.Put(toCatalogItem(menuPlatter))
	menu.Put(toCatalogItem(menuSalad))
	svc := newService(testutil.NewBookingRepository(), menu, rdb, bookingEvents.NoopPublisher{})

	created, err := svc.CreateBooking(context.Background(), uuid.New(), bookingRequest())
	require.NoError(t, err)
	_, err = svc.ClaimJob(context.Background(), w.ID, created.ID)
	assert.True(t, errors.Is(err, domain.ErrWorkerBusy))
}

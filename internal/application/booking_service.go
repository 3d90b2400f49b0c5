package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/platterhub/service-booking/internal/events"
	"go.uber.org/zap"
)

const eventSource = "service-booking"

// eventDateLayout is the calendar-date form accepted for event dates.
const eventDateLayout = "2006-01-02"

// RequestedItemDTO is one menu selection in a booking request.
type RequestedItemDTO struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1,max=10000"`
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	EventDate       string             `json:"event_date" binding:"required"`
	EventTime       string             `json:"event_time" binding:"required"`
	Location        string             `json:"location" binding:"required"`
	GuestCount      int                `json:"guest_count" binding:"required"`
	SpecialRequests string             `json:"special_requests"`
	Items           []RequestedItemDTO `json:"items" binding:"required,min=1,dive"`
}

// RebookRequest holds the new event slot for a rebooked order.
type RebookRequest struct {
	EventDate string `json:"event_date" binding:"required"`
	EventTime string `json:"event_time"`
}

// LineItemDTO is the response representation of a priced menu selection.
type LineItemDTO struct {
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID     `json:"id"`
	BookingNumber   string        `json:"booking_number"`
	ClientID        uuid.UUID     `json:"client_id"`
	WorkerID        *uuid.UUID    `json:"worker_id,omitempty"`
	Status          string        `json:"status"`
	LineItems       []LineItemDTO `json:"line_items"`
	EventDate       string        `json:"event_date"`
	EventTime       string        `json:"event_time"`
	Location        string        `json:"location"`
	GuestCount      int           `json:"guest_count"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	TotalPriceCents int64         `json:"total_price_cents"`
	Currency        string        `json:"currency"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo        bookingDomain.BookingRepository
	pricing     bookingDomain.PricingResolver
	assignment  *AssignmentEngine
	transitions *TransitionEngine
	publisher   events.Publisher
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	pricing bookingDomain.PricingResolver,
	availability identity.AvailabilityReader,
	publisher events.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:        repo,
		pricing:     pricing,
		assignment:  NewAssignmentEngine(repo, availability, logger),
		transitions: NewTransitionEngine(repo, logger),
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateBooking prices the selection and persists a pending booking for clientID.
func (s *BookingService) CreateBooking(ctx context.Context, clientID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	requested := make([]bookingDomain.RequestedItem, len(req.Items))
	for i, it := range req.Items {
		requested[i] = bookingDomain.RequestedItem{CatalogItemID: it.MenuItemID, Quantity: it.Quantity}
	}

	quote, err := s.pricing.Resolve(ctx, requested)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(clientID, bookingDomain.EventDetails{
		EventDate:       eventDate,
		EventTime:       req.EventTime,
		Location:        req.Location,
		GuestCount:      req.GuestCount,
		SpecialRequests: req.SpecialRequests,
	}, quote)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("client_id", clientID.String()),
		zap.Int64("total_price_cents", bk.TotalPriceCents()),
	)

	evt := events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ClientID:        bk.ClientID(),
		EventDate:       bk.EventDate(),
		GuestCount:      bk.EventDetails().GuestCount,
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingCreated, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ListMyBookings returns the bookings tied to the principal: everything for
// admins, owned bookings for clients, claimed jobs for workers.
func (s *BookingService) ListMyBookings(ctx context.Context, p identity.Principal, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)
	switch p.Role {
	case identity.RoleAdmin:
		bookings, total, err = s.repo.ListAll(ctx, page, limit)
	case identity.RoleClient:
		bookings, total, err = s.repo.FindByClientID(ctx, p.ID, page, limit)
	case identity.RoleWorker:
		bookings, total, err = s.repo.FindByWorkerID(ctx, p.ID, page, limit)
	default:
		return nil, domain.NewForbiddenError("unknown role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return paginate(bookings, total, page, limit), nil
}

// ListAvailableJobs returns claimable bookings for workers.
func (s *BookingService) ListAvailableJobs(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.assignment.ListAvailable(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return paginate(bookings, total, page, limit), nil
}

// GetWorkerJobs returns bookings claimed by workerID, earliest event first.
func (s *BookingService) GetWorkerJobs(ctx context.Context, workerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByWorkerID(ctx, workerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker jobs: %w", err)
	}
	return paginate(bookings, total, page, limit), nil
}

// ClaimJob assigns the booking to workerID.
func (s *BookingService) ClaimJob(ctx context.Context, workerID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.assignment.Claim(ctx, bookingID, workerID)
	if err != nil {
		return nil, err
	}

	evt := events.BookingAssignedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ClientID:      bk.ClientID(),
		WorkerID:      workerID,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingAssigned, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// SetStatus applies an explicit status transition on behalf of p.
func (s *BookingService) SetStatus(ctx context.Context, p identity.Principal, bookingID uuid.UUID, status string) (*BookingDTO, error) {
	requested, err := bookingDomain.ParseBookingStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, from, err := s.transitions.Transition(ctx, bookingID, p, requested)
	if err != nil {
		return nil, err
	}

	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ClientID:      bk.ClientID(),
		WorkerID:      bk.WorkerID(),
		From:          string(from),
		To:            string(bk.Status()),
		ChangedBy:     p.ID,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingStatusChanged, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to p. Bookings p may not see
// are reported as not found.
func (s *BookingService) GetBooking(ctx context.Context, p identity.Principal, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bookingDomain.CanView(p, bk) {
		return nil, domain.NewNotFoundError("Booking", bookingID.String())
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// RebookBooking clones an existing booking's menu and venue into a new
// pending booking, priced at today's catalog.
func (s *BookingService) RebookBooking(ctx context.Context, clientID, originalBookingID uuid.UUID, req RebookRequest) (*BookingDTO, error) {
	original, err := s.repo.FindByID(ctx, originalBookingID)
	if err != nil {
		return nil, err
	}

	// Only the original client can rebook
	if original.ClientID() != clientID {
		return nil, domain.NewNotFoundError("Booking", originalBookingID.String())
	}

	details := original.EventDetails()
	eventTime := req.EventTime
	if strings.TrimSpace(eventTime) == "" {
		eventTime = details.EventTime
	}

	items := make([]RequestedItemDTO, 0, len(original.LineItems()))
	for _, li := range original.LineItems() {
		items = append(items, RequestedItemDTO{MenuItemID: li.CatalogItemID, Quantity: li.Quantity})
	}

	return s.CreateBooking(ctx, clientID, CreateBookingRequest{
		EventDate:       req.EventDate,
		EventTime:       eventTime,
		Location:        details.Location,
		GuestCount:      details.GuestCount,
		SpecialRequests: details.SpecialRequests,
		Items:           items,
	})
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return paginate(bookings, total, page, limit), nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func parseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(eventDateLayout, s); err == nil {
		return d, nil
	}
	// Timestamps keep the calendar date of their own offset.
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, domain.NewValidationError(fmt.Sprintf("invalid event date %q: expected YYYY-MM-DD", s))
}

func paginate(bookings []*bookingDomain.Booking, total int64, page, limit int) *domain.PaginatedResult[BookingDTO] {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	lineItems := bk.LineItems()
	items := make([]LineItemDTO, len(lineItems))
	for i, li := range lineItems {
		items[i] = LineItemDTO{
			MenuItemID:     li.CatalogItemID,
			Name:           li.Name,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
			LineTotalCents: li.TotalCents(),
		}
	}

	details := bk.EventDetails()
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ClientID:        bk.ClientID(),
		WorkerID:        bk.WorkerID(),
		Status:          string(bk.Status()),
		LineItems:       items,
		EventDate:       details.EventDate.Format(eventDateLayout),
		EventTime:       details.EventTime,
		Location:        details.Location,
		GuestCount:      details.GuestCount,
		SpecialRequests: details.SpecialRequests,
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, subject string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent(eventSource, eventType, subject, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

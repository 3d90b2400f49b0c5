package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"go.uber.org/zap"
)

// AssignmentEngine exposes claimable jobs and assigns exactly one worker per booking.
type AssignmentEngine struct {
	repo         bookingDomain.BookingRepository
	availability identity.AvailabilityReader
	logger       *zap.Logger
}

// NewAssignmentEngine creates a new AssignmentEngine.
func NewAssignmentEngine(
	repo bookingDomain.BookingRepository,
	availability identity.AvailabilityReader,
	logger *zap.Logger,
) *AssignmentEngine {
	return &AssignmentEngine{
		repo:         repo,
		availability: availability,
		logger:       logger,
	}
}

// ListAvailable returns a page of pending, unassigned bookings, earliest event first.
func (e *AssignmentEngine) ListAvailable(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	bookings, total, err := e.repo.FindPendingUnassigned(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list available bookings: %w", err)
	}
	return bookings, total, nil
}

// Claim assigns workerID to bookingID.
//
// The booking must exist (NotFound), still be pending and unassigned
// (AlreadyAssigned) and the worker must be available (WorkerBusy). The
// assignment itself is a conditional update on {pending, no worker}; losing
// that race also yields AlreadyAssigned.
func (e *AssignmentEngine) Claim(ctx context.Context, bookingID, workerID uuid.UUID) (*bookingDomain.Booking, error) {
	if workerID == uuid.Nil {
		return nil, domain.NewValidationError("worker ID is required")
	}

	bk, err := e.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsClaimable() {
		return nil, domain.NewAlreadyAssignedError(bookingID.String())
	}

	status, err := e.availability.GetAvailability(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read worker availability: %w", err)
	}
	if status != identity.AvailabilityAvailable {
		return nil, domain.NewWorkerBusyError(workerID.String())
	}

	updated, err := e.repo.ConditionalUpdate(ctx, bookingID,
		bookingDomain.Expectation{Status: bookingDomain.StatusPending, WorkerAssigned: false},
		bookingDomain.Patch{Status: bookingDomain.StatusAssigned, WorkerID: &workerID},
	)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			e.logger.Info("claim lost to a concurrent claimant",
				zap.String("booking_id", bookingID.String()),
				zap.String("worker_id", workerID.String()),
			)
			return nil, domain.NewAlreadyAssignedError(bookingID.String())
		}
		return nil, err
	}

	e.logger.Info("booking claimed",
		zap.String("booking_id", bookingID.String()),
		zap.String("worker_id", workerID.String()),
	)
	return updated, nil
}

package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"go.uber.org/zap"
)

// TransitionEngine validates and applies explicit status changes.
type TransitionEngine struct {
	repo   bookingDomain.BookingRepository
	logger *zap.Logger
}

// NewTransitionEngine creates a new TransitionEngine.
func NewTransitionEngine(repo bookingDomain.BookingRepository, logger *zap.Logger) *TransitionEngine {
	return &TransitionEngine{repo: repo, logger: logger}
}

// Transition moves bookingID to requested on behalf of actor. It returns the
// updated booking and the status it moved from.
//
// Order of checks: NotFound, Forbidden (access filter), IllegalTransition
// (lifecycle table). The write is conditional on the status and worker
// presence observed here; a concurrent change yields Conflict.
func (e *TransitionEngine) Transition(
	ctx context.Context,
	bookingID uuid.UUID,
	actor identity.Principal,
	requested bookingDomain.BookingStatus,
) (*bookingDomain.Booking, bookingDomain.BookingStatus, error) {
	if !requested.IsValid() {
		return nil, "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", requested))
	}

	bk, err := e.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	if !bookingDomain.CanMutateStatus(actor, bk, requested) {
		return nil, "", domain.NewForbiddenError("access denied")
	}

	from := bk.Status()
	if !from.CanTransitionTo(requested) {
		return nil, "", domain.NewInvalidStateError(string(from), string(requested))
	}

	updated, err := e.repo.ConditionalUpdate(ctx, bookingID,
		bookingDomain.Expectation{Status: from, WorkerAssigned: bk.WorkerID() != nil},
		bookingDomain.Patch{Status: requested},
	)
	if err != nil {
		return nil, "", err
	}

	e.logger.Info("booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(requested)),
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_role", string(actor.Role)),
	)
	return updated, from, nil
}

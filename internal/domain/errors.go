// Package domain holds the error taxonomy shared by every booking component.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError for callers and transport layers.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeItemUnavailable   ErrorCode = "ITEM_UNAVAILABLE"
	CodeAlreadyAssigned   ErrorCode = "ALREADY_ASSIGNED"
	CodeWorkerBusy        ErrorCode = "WORKER_BUSY"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeIllegalTransition ErrorCode = "ILLEGAL_TRANSITION"
	CodeConflict          ErrorCode = "CONFLICT"
)

// DomainError is a recoverable business failure carrying a user-facing message.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a DomainError with the same code, so the
// package sentinels can be used with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrInvalidInput      = &DomainError{Code: CodeInvalidInput}
	ErrItemUnavailable   = &DomainError{Code: CodeItemUnavailable}
	ErrAlreadyAssigned   = &DomainError{Code: CodeAlreadyAssigned}
	ErrWorkerBusy        = &DomainError{Code: CodeWorkerBusy}
	ErrForbidden         = &DomainError{Code: CodeForbidden}
	ErrIllegalTransition = &DomainError{Code: CodeIllegalTransition}
	ErrConflict          = &DomainError{Code: CodeConflict}
)

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewValidationError reports bad caller input.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidInput, Message: msg}
}

// NewItemUnavailableError reports a catalog item that cannot be ordered.
func NewItemUnavailableError(itemID string) *DomainError {
	return &DomainError{Code: CodeItemUnavailable, Message: fmt.Sprintf("menu item %s is not available", itemID)}
}

// NewAlreadyAssignedError reports a booking that can no longer be claimed.
func NewAlreadyAssignedError(bookingID string) *DomainError {
	return &DomainError{Code: CodeAlreadyAssigned, Message: fmt.Sprintf("booking %s is already taken", bookingID)}
}

// NewWorkerBusyError reports a worker whose availability forbids new jobs.
func NewWorkerBusyError(workerID string) *DomainError {
	return &DomainError{Code: CodeWorkerBusy, Message: fmt.Sprintf("worker %s is busy and cannot accept new bookings", workerID)}
}

// NewForbiddenError reports an actor without permission.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: msg}
}

// NewInvalidStateError reports a status change not allowed by the lifecycle.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Code: CodeIllegalTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewConflictError reports a lost compare-and-swap.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

// CodeOf returns the code of a DomainError anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

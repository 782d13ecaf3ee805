// Package service implements the quantity-accounting core: item
// registration, the reservation lifecycle state machine and the expiry
// sweep.  Every operation returns either a result or one of the typed
// failures below; the handler layer maps these to wire responses and
// the service never writes to a client-visible channel itself.
package service

import (
	"errors"
	"fmt"
)

// Closed set of failures the reservation core can produce.  Handlers
// switch over these with errors.Is/errors.As; no failure is ever
// signalled by string comparison.
var (
	// ErrItemNotFound: the referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrReservationNotFound: the referenced reservation does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationExpired: the reservation is EXPIRED, or is a stale
	// PENDING row whose expiry has already passed.
	ErrReservationExpired = errors.New("reservation expired")
	// ErrReservationCancelled: confirm attempted on a CANCELLED reservation.
	ErrReservationCancelled = errors.New("reservation cancelled")
	// ErrReservationConfirmed: cancel attempted on a CONFIRMED
	// reservation; confirmed holds are permanent.
	ErrReservationConfirmed = errors.New("reservation confirmed")
	// ErrReservationStateChanged: a guarded write lost its race and the
	// re-read produced a state the caller's intent cannot absorb.
	ErrReservationStateChanged = errors.New("reservation state changed")
	// ErrDatabase wraps every store failure; the core never retries.
	ErrDatabase = errors.New("database error")
)

// InsufficientQuantityError is returned by the admission check when an
// item cannot cover the requested quantity.  It carries both sides of
// the comparison for diagnostics.
type InsufficientQuantityError struct {
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity: available %d, requested %d", e.Available, e.Requested)
}

// dbErr wraps a store failure into ErrDatabase, preserving the cause
// for logs.
func dbErr(err error) error {
	return fmt.Errorf("%w: %v", ErrDatabase, err)
}

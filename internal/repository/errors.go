// Package repository defines error values shared across the
// repositories. These sentinels allow the service layer to
// distinguish "row does not exist" from genuine database failures
// without inspecting driver errors. ErrItemNotFound and
// ErrReservationNotFound are returned in place of sql.ErrNoRows so
// callers never depend on database/sql directly.
package repository

import "errors"

// ErrItemNotFound is returned when a lookup references an item id
// that has no row. The service maps this to its ItemNotFound failure.
var ErrItemNotFound = errors.New("item not found")

// ErrReservationNotFound is returned when a lookup references a
// reservation id that has no row.
var ErrReservationNotFound = errors.New("reservation not found")

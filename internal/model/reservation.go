package model

import "time"

// Reservation statuses.  PENDING is the only non-terminal state; a
// PENDING row whose expiry has passed is treated as inactive by the
// accounting even before the sweep marks it EXPIRED.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Reservation records a temporary hold of quantity against an item.
// It is created PENDING with a fixed expiry window and transitions to
// exactly one of CONFIRMED, CANCELLED or EXPIRED.  At most one of
// ConfirmedAt/CancelledAt is ever set.
//
// Fields:
//  ID          – opaque UUID identifier, generated at creation.
//  ItemID      – item the hold is placed against, immutable.
//  CustomerID  – opaque customer identifier; not validated against
//                any registry.
//  Quantity    – units held, fixed at creation, always > 0.
//  Status      – one of the Status* constants above.
//  ExpiresAt   – creation time plus the global reservation window.
//  ConfirmedAt – set exactly once on the confirming transition.
//  CancelledAt – set exactly once on the cancelling transition.
//  CreatedAt   – creation timestamp.
type Reservation struct {
	ID          string     `json:"id"`                     // reservations.id
	ItemID      string     `json:"item_id"`                // reservations.item_id
	CustomerID  string     `json:"customer_id"`            // reservations.customer_id
	Quantity    int        `json:"quantity"`               // reservations.quantity
	Status      string     `json:"status"`                 // reservations.status
	ExpiresAt   time.Time  `json:"expires_at"`             // reservations.expires_at
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"` // reservations.confirmed_at (nullable)
	CancelledAt *time.Time `json:"cancelled_at,omitempty"` // reservations.cancelled_at (nullable)
	CreatedAt   time.Time  `json:"created_at"`             // reservations.created_at
}

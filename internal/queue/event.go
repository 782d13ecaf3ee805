// Package queue defines message payloads exchanged over the message
// broker, the best-effort publisher that emits them and the background
// consumer that records them.
package queue

// ReservationConfirmedEvent is published when a hold is confirmed into
// a permanent deduction.  It carries enough for downstream consumers
// to log, notify or feed analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID string `json:"reservation_id"`
	ItemID        string `json:"item_id"`
	CustomerID    string `json:"customer_id"`
	Quantity      int    `json:"quantity"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationsExpiredEvent is published after an expiry sweep that
// transitioned at least one reservation.
type ReservationsExpiredEvent struct {
	ExpiredCount   int      `json:"expired_count"`
	ReservationIDs []string `json:"reservation_ids"`
}

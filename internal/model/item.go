package model

import "time"

// Item is a unit of inventory that reservations are placed against.
// The total quantity is fixed at creation; how much of it is currently
// available is never stored but always derived from the reservation
// rows that reference the item.
//
// Fields:
//  ID            – opaque UUID identifier, generated at creation.
//  Name          – display name, non-empty after trimming.
//  TotalQuantity – total units of this item, immutable.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Item struct {
	ID            string    `json:"id"`             // items.id
	Name          string    `json:"name"`           // items.name
	TotalQuantity int       `json:"total_quantity"` // items.total_quantity
	CreatedAt     time.Time `json:"created_at"`     // items.created_at
	UpdatedAt     time.Time `json:"updated_at"`     // items.updated_at
}

// ItemStatus is the per-item availability breakdown returned by the
// status endpoint.  ReservedQuantity here counts every PENDING
// reservation regardless of expiry; the stricter computation used
// during admission lives in the service layer and must not be
// conflated with this view.
type ItemStatus struct {
	ItemID            string `json:"item_id"`
	Name              string `json:"name"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	ReservedQuantity  int    `json:"reserved_quantity"`
	ConfirmedQuantity int    `json:"confirmed_quantity"`
}

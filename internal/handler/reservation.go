package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-reservation/internal/model"
	"github.com/iliyamo/inventory-reservation/internal/queue"
)

// ReservationService is the slice of the reservation core the
// reservation endpoints consume.
type ReservationService interface {
	CreateReservation(ctx context.Context, itemID, customerID string, quantity int) (*model.Reservation, error)
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListReservations(ctx context.Context, itemID, customerID string) ([]model.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*model.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*model.Reservation, error)
}

// EventPublisher emits domain events after successful transitions.
// Publishing is best-effort: a broker failure is logged and never
// affects the API response.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// ReservationHandler exposes the reservation lifecycle over HTTP:
// create, confirm, cancel and read endpoints.
type ReservationHandler struct {
	svc       ReservationService
	publisher EventPublisher // may be nil when no broker is configured
}

// NewReservationHandler constructs a ReservationHandler.  The service
// must be non-nil; the publisher may be nil.
func NewReservationHandler(svc ReservationService, publisher EventPublisher) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc, publisher: publisher}
}

// Create handles POST /v1/reservations.  The body must carry an
// item_id, a customer_id and a positive quantity.  Returns 201 with
// the PENDING reservation, 404 when the item does not exist and 409
// when availability cannot cover the request.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body struct {
		ItemID     string `json:"item_id"`
		CustomerID string `json:"customer_id"`
		Quantity   int    `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid request body")
	}
	if strings.TrimSpace(body.ItemID) == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "item_id is required")
	}
	if strings.TrimSpace(body.CustomerID) == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "customer_id is required")
	}
	if body.Quantity <= 0 {
		return fail(c, http.StatusBadRequest, codeValidationError, "quantity must be greater than zero")
	}
	res, err := h.svc.CreateReservation(c.Request().Context(),
		strings.TrimSpace(body.ItemID), strings.TrimSpace(body.CustomerID), body.Quantity)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid reservation id")
	}
	res, err := h.svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, res)
}

// List handles GET /v1/reservations.  Optional item_id and customer_id
// query parameters filter the result; ordering is newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	out, err := h.svc.ListReservations(c.Request().Context(),
		c.QueryParam("item_id"), c.QueryParam("customer_id"))
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, out)
}

// Confirm handles POST /v1/reservations/:id/confirm.  Confirming an
// already confirmed reservation returns the unchanged row (idempotent
// success); expired, cancelled and concurrently changed holds return
// 409.  On a fresh confirmation the confirmed event is published
// best-effort.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid reservation id")
	}
	res, err := h.svc.ConfirmReservation(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	if h.publisher != nil && res.ConfirmedAt != nil {
		ev := queue.ReservationConfirmedEvent{
			ReservationID: res.ID,
			ItemID:        res.ItemID,
			CustomerID:    res.CustomerID,
			Quantity:      res.Quantity,
			ConfirmedAt:   res.ConfirmedAt.UTC().Format(time.RFC3339),
		}
		if err := h.publisher.PublishReservationConfirmed(c.Request().Context(), ev); err != nil {
			log.Printf("reservation %s confirmed but event publish failed: %v", res.ID, err)
		}
	}
	return ok(c, http.StatusOK, res)
}

// Cancel handles POST /v1/reservations/:id/cancel.  Cancelling an
// already cancelled reservation returns the unchanged row; confirmed
// holds are permanent and return 409.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid reservation id")
	}
	res, err := h.svc.CancelReservation(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, res)
}

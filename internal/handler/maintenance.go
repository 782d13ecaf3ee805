package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-reservation/internal/queue"
	"github.com/iliyamo/inventory-reservation/internal/service"
)

// SweepService is the expiry sweep entry point.  The sweep runs only
// when this endpoint is hit; there is no internal scheduler.
type SweepService interface {
	ExpireReservations(ctx context.Context) (*service.SweepResult, error)
}

// SweepPublisher emits the expired event after a sweep that moved rows.
type SweepPublisher interface {
	PublishReservationsExpired(ctx context.Context, ev queue.ReservationsExpiredEvent) error
}

// MaintenanceHandler exposes operational triggers.  Currently only the
// expiry sweep.
type MaintenanceHandler struct {
	svc       SweepService
	publisher SweepPublisher // may be nil when no broker is configured
}

// NewMaintenanceHandler constructs a MaintenanceHandler.  The service
// must be non-nil; the publisher may be nil.
func NewMaintenanceHandler(svc SweepService, publisher SweepPublisher) *MaintenanceHandler {
	if svc == nil {
		panic("nil service passed to NewMaintenanceHandler")
	}
	return &MaintenanceHandler{svc: svc, publisher: publisher}
}

// ExpireReservations handles POST /v1/maintenance/expire-reservations.
// It transitions every stale PENDING reservation to EXPIRED and
// returns the count and ids of the rows actually moved.
func (h *MaintenanceHandler) ExpireReservations(c echo.Context) error {
	result, err := h.svc.ExpireReservations(c.Request().Context())
	if err != nil {
		return failService(c, err)
	}
	if h.publisher != nil && result.ExpiredCount > 0 {
		ev := queue.ReservationsExpiredEvent{
			ExpiredCount:   result.ExpiredCount,
			ReservationIDs: result.ReservationIDs,
		}
		if err := h.publisher.PublishReservationsExpired(c.Request().Context(), ev); err != nil {
			log.Printf("sweep expired %d reservations but event publish failed: %v", result.ExpiredCount, err)
		}
	}
	return ok(c, http.StatusOK, result)
}

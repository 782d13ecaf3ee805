package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-reservation/internal/service"
)

// Every response uses a uniform envelope: {"success":true,"data":...}
// on success and {"success":false,"error":{"code","message"}} on
// failure.  The service's typed failures are mapped onto wire codes
// here and nowhere else.

// Error codes exposed on the wire.
const (
	codeItemNotFound        = "ITEM_NOT_FOUND"
	codeReservationNotFound = "RESERVATION_NOT_FOUND"
	codeValidationError     = "VALIDATION_ERROR"
	codeInsufficientQty     = "INSUFFICIENT_QUANTITY"
	codeReservationExpired  = "RESERVATION_EXPIRED"
	codeReservationCancel   = "RESERVATION_CANCELLED"
	codeReservationConfirm  = "RESERVATION_CONFIRMED"
	codeStateChanged        = "RESERVATION_STATE_CHANGED"
	codeDatabaseError       = "DATABASE_ERROR"
	codeInternalError       = "INTERNAL_SERVER_ERROR"
)

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   echo.Map{"code": code, "message": message},
	})
}

// failService maps a service failure to its wire status and code:
// not-found family to 404, insufficient-quantity and state conflicts
// to 409, database and anything unrecognised to 500.
func failService(c echo.Context, err error) error {
	var insufficient *service.InsufficientQuantityError
	switch {
	case errors.As(err, &insufficient):
		msg := fmt.Sprintf("insufficient quantity: %d available, %d requested",
			insufficient.Available, insufficient.Requested)
		return fail(c, http.StatusConflict, codeInsufficientQty, msg)
	case errors.Is(err, service.ErrItemNotFound):
		return fail(c, http.StatusNotFound, codeItemNotFound, "item not found")
	case errors.Is(err, service.ErrReservationNotFound):
		return fail(c, http.StatusNotFound, codeReservationNotFound, "reservation not found")
	case errors.Is(err, service.ErrReservationExpired):
		return fail(c, http.StatusConflict, codeReservationExpired, "reservation has expired")
	case errors.Is(err, service.ErrReservationCancelled):
		return fail(c, http.StatusConflict, codeReservationCancel, "reservation was cancelled")
	case errors.Is(err, service.ErrReservationConfirmed):
		return fail(c, http.StatusConflict, codeReservationConfirm, "reservation is confirmed and cannot be cancelled")
	case errors.Is(err, service.ErrReservationStateChanged):
		return fail(c, http.StatusConflict, codeStateChanged, "reservation state changed concurrently")
	case errors.Is(err, service.ErrDatabase):
		c.Logger().Errorf("database error: %v", err)
		return fail(c, http.StatusInternalServerError, codeDatabaseError, "database error")
	default:
		c.Logger().Errorf("internal error: %v", err)
		return fail(c, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

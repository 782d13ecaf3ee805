package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/inventory-reservation/internal/handler"    // import the handlers that implement endpoint logic
	"github.com/iliyamo/inventory-reservation/internal/middleware" // import rate limiting, caching and metrics middleware
)

// RegisterRoutes registers operational routes on the provided Echo
// instance: the health check used by load balancers and the Prometheus
// metrics endpoint.  Neither goes through the rate limiter or cache.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", middleware.MetricsHandler())
}

// RegisterAPI registers the inventory reservation API under /v1.  The
// rate limiter applies to every API route; the response cache fronts
// only the read endpoints passed in via cacheMW (write endpoints must
// never be cached).
func RegisterAPI(e *echo.Echo, items *handler.ItemHandler, reservations *handler.ReservationHandler, maintenance *handler.MaintenanceHandler, rateMW, cacheMW echo.MiddlewareFunc) {
	g := e.Group("/v1", rateMW)

	// Item registration and read endpoints.  The status report is the
	// per-item availability breakdown; list endpoints return entities
	// newest first.
	g.POST("/items", items.Create)
	g.GET("/items", items.List, cacheMW)
	g.GET("/items/:id", items.Get, cacheMW)
	g.GET("/items/:id/status", items.Status, cacheMW)

	// Reservation lifecycle: create a hold, confirm it into a permanent
	// deduction, or cancel it.  Confirm and cancel are idempotent for
	// repeats of their own terminal state.
	g.POST("/reservations", reservations.Create)
	g.GET("/reservations", reservations.List, cacheMW)
	g.GET("/reservations/:id", reservations.Get)
	g.POST("/reservations/:id/confirm", reservations.Confirm)
	g.POST("/reservations/:id/cancel", reservations.Cancel)

	// Maintenance trigger for the expiry sweep; there is no internal
	// scheduler, an external cron is expected to hit this.
	g.POST("/maintenance/expire-reservations", maintenance.ExpireReservations)
}

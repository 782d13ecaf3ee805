package handler // declare the package name; contains HTTP handlers

import (
	"net/http"          // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It is the
// one endpoint that bypasses the response envelope: probes expect a
// bare 200 with a short body.
func Health(c echo.Context) error { // Health handler signature accepts an echo context and returns an error
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"}) // respond 200 with a tiny JSON body
}

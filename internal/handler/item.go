package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-reservation/internal/model"
)

// ItemService is the slice of the reservation core the item endpoints
// consume.  Handlers perform shape validation only; everything past a
// well-formed command belongs to the service.
type ItemService interface {
	CreateItem(ctx context.Context, name string, totalQuantity int) (*model.Item, error)
	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	ItemStatus(ctx context.Context, itemID string) (*model.ItemStatus, error)
}

// ItemHandler exposes item registration and the per-item availability
// status report.
type ItemHandler struct {
	svc ItemService
}

// NewItemHandler constructs an ItemHandler.  The service must be non-nil.
func NewItemHandler(svc ItemService) *ItemHandler {
	if svc == nil {
		panic("nil service passed to NewItemHandler")
	}
	return &ItemHandler{svc: svc}
}

// Create handles POST /v1/items.  The request body must contain a
// non-empty name and a total_quantity of zero or more.  Returns 201
// with the created item.
func (h *ItemHandler) Create(c echo.Context) error {
	var body struct {
		Name          string `json:"name"`
		TotalQuantity *int   `json:"total_quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid request body")
	}
	if strings.TrimSpace(body.Name) == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "name is required")
	}
	if body.TotalQuantity == nil || *body.TotalQuantity < 0 {
		return fail(c, http.StatusBadRequest, codeValidationError, "total_quantity must be zero or greater")
	}
	it, err := h.svc.CreateItem(c.Request().Context(), body.Name, *body.TotalQuantity)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusCreated, it)
}

// Get handles GET /v1/items/:id.
func (h *ItemHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid item id")
	}
	it, err := h.svc.GetItem(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, it)
}

// List handles GET /v1/items.  Items are returned newest first.
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.svc.ListItems(c.Request().Context())
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, items)
}

// Status handles GET /v1/items/:id/status.  It returns the quantity
// breakdown (total/available/reserved/confirmed) where reserved counts
// every PENDING reservation regardless of expiry.
func (h *ItemHandler) Status(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, codeValidationError, "invalid item id")
	}
	st, err := h.svc.ItemStatus(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, http.StatusOK, st)
}

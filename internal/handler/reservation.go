package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slotwise/platform/internal/middleware"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/service"
)

// ReservationHandler exposes the reservation flow. All methods assume
// TenantAuth has already resolved the calling tenant; a missing tenant
// in context is a route-wiring bug surfaced as 401.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	if reservations == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// Create handles POST /v1/reservations. The request body carries the
// date and an opaque customer reference. Responses follow the
// reservation contract: 201 with the booking on success, 409 when the
// slot is already taken (a terminal outcome the client must not retry),
// and 503 with a Retry-After hint when the ledger was too contended to
// decide within the retry budget.
func (h *ReservationHandler) Create(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Date        string `json:"date"`
		CustomerRef string `json:"customer_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Date == "" || body.CustomerRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date and customer_ref are required"})
	}
	booking, err := h.Reservations.Reserve(c.Request().Context(), tenant.ID, body.Date, body.CustomerRef)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, booking)
	case errors.Is(err, service.ErrInvalidDate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	case errors.Is(err, repository.ErrSlotConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "date already booked"})
	case errors.Is(err, service.ErrTransientUnavailable):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":       "temporarily unavailable, please retry",
			"retry_after": 1,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// Get handles GET /v1/reservations/:id scoped to the calling tenant.
func (h *ReservationHandler) Get(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Reservations.Get(c.Request().Context(), tenant.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, booking)
}

// Cancel handles DELETE /v1/reservations/:id. Cancellation is terminal
// and frees the slot immediately; cancelling an already cancelled
// booking is an idempotent 200.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Reservations.Cancel(c.Request().Context(), tenant.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, booking)
}

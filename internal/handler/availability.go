package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slotwise/platform/internal/middleware"
	"github.com/slotwise/platform/internal/service"
)

// AvailabilityHandler answers point and range availability queries for
// the calling tenant.
type AvailabilityHandler struct {
	Availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	if availability == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: availability}
}

// Point handles GET /v1/availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Point(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}
	available, err := h.Availability.IsAvailable(c.Request().Context(), tenant.ID, date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "available": available})
}

// Range handles GET /v1/availability/range?from=...&to=... and answers
// the whole span with a single ledger read.
func (h *AvailabilityHandler) Range(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to are required"})
	}
	availability, err := h.Availability.RangeAvailability(c.Request().Context(), tenant.ID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD and from <= to"})
		case errors.Is(err, service.ErrRangeTooWide):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "range too wide"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": availability})
}

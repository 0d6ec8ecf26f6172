package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slotwise/platform/internal/service"
)

// OpsHandler exposes operator endpoints behind the OPERATOR JWT: the
// quarantine queue of payment events that could not be applied, and a
// manual trigger for the reconciliation sweep.
type OpsHandler struct {
	Ingest     *service.IngestService
	Reconciler *service.Reconciler
}

// NewOpsHandler constructs an OpsHandler.
func NewOpsHandler(ingest *service.IngestService, reconciler *service.Reconciler) *OpsHandler {
	if ingest == nil || reconciler == nil {
		panic("nil dependency passed to NewOpsHandler")
	}
	return &OpsHandler{Ingest: ingest, Reconciler: reconciler}
}

// Quarantine handles GET /v1/ops/quarantine?limit=N and lists
// dead-lettered payment events oldest first.
func (h *OpsHandler) Quarantine(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	events, err := h.Ingest.Quarantined(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Reconcile handles POST /v1/ops/reconcile and runs one sweep
// synchronously, returning how many unprocessed events were attempted.
func (h *OpsHandler) Reconcile(c echo.Context) error {
	n, err := h.Reconciler.Sweep(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"attempted": n})
}

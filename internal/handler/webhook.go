package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slotwise/platform/internal/middleware"
	"github.com/slotwise/platform/internal/service"
)

// signatureHeader carries the payment provider's HMAC over the raw body.
const signatureHeader = "X-Payment-Signature"

// maxEventBody bounds how much of a webhook body is read; provider
// events are small and anything larger is hostile.
const maxEventBody = 1 << 20

// WebhookHandler receives externally delivered payment events over HTTP.
// The delivery contract is asymmetric on purpose: 200 acknowledges both
// first-time processing and duplicates, because any non-success response
// makes the sender retry an event we have already durably recorded. Only
// a bad signature or unparseable body earns a 400, and those deliveries
// leave no trace in the event table.
type WebhookHandler struct {
	Ingest *service.IngestService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(ingest *service.IngestService) *WebhookHandler {
	if ingest == nil {
		panic("nil service passed to NewWebhookHandler")
	}
	return &WebhookHandler{Ingest: ingest}
}

// Receive handles POST /v1/payments/events.
func (h *WebhookHandler) Receive(c echo.Context) error {
	tenant, ok := middleware.CurrentTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	signature := c.Request().Header.Get(signatureHeader)
	if signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing signature"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxEventBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	outcome, _ := h.Ingest.Ingest(c.Request().Context(), tenant, signature, body)
	switch outcome {
	case service.OutcomeAccepted:
		return c.JSON(http.StatusOK, echo.Map{"status": "accepted"})
	case service.OutcomeDuplicate:
		return c.JSON(http.StatusOK, echo.Map{"status": "duplicate"})
	case service.OutcomeUnavailable:
		// Storage failure before the dedupe insert committed; the sender
		// should retry this delivery.
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable"})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event"})
	}
}

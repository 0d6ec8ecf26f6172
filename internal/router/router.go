package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotwise/platform/internal/handler"
	"github.com/slotwise/platform/internal/middleware"
	"github.com/slotwise/platform/internal/service"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check for load balancers and
// the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterTenantAPI registers the tenant-facing endpoints under /v1. All
// of them resolve the calling tenant through the TenantAuth middleware
// first. The token bucket guards only the client-driven reservation and
// availability routes: the payment webhook is exempt, so a tenant's own
// retry storm can never 429 its payment provider into retry escalation.
func RegisterTenantAPI(
	e *echo.Echo,
	registry *service.Registry,
	reservations *handler.ReservationHandler,
	availability *handler.AvailabilityHandler,
	webhook *handler.WebhookHandler,
	limiter echo.MiddlewareFunc,
) {
	g := e.Group("/v1")
	g.Use(middleware.TenantAuth(registry))

	// Reservation flow.
	g.POST("/reservations", reservations.Create, limiter)
	g.GET("/reservations/:id", reservations.Get, limiter)
	g.DELETE("/reservations/:id", reservations.Cancel, limiter)

	// Availability queries.
	g.GET("/availability", availability.Point, limiter)
	g.GET("/availability/range", availability.Range, limiter)

	// Payment event receiver, deliberately unlimited. The signature
	// inside the request is the event source's authentication; TenantAuth
	// scopes which tenant's secret verifies it.
	g.POST("/payments/events", webhook.Receive)
}

// RegisterOps registers operator endpoints under /v1/ops. These are
// protected by the OPERATOR JWT rather than a tenant API key, since the
// quarantine queue spans tenants.
func RegisterOps(e *echo.Echo, ops *handler.OpsHandler, jwtSecret string) {
	g := e.Group("/v1/ops")
	g.Use(middleware.OperatorAuth(jwtSecret))
	g.GET("/quarantine", ops.Quarantine)
	g.POST("/reconcile", ops.Reconcile)
}

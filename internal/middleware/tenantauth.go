package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/service"
)

// CredentialAuthenticator resolves an API credential to a tenant. The
// production implementation is service.Registry.
type CredentialAuthenticator interface {
	Authenticate(ctx context.Context, tenantID, secret string) (*model.Tenant, error)
}

// tenantContextKey is where TenantAuth stores the resolved tenant on the
// echo context.
const tenantContextKey = "tenant"

// TenantAuth returns an Echo middleware that resolves the X-API-Key
// header to a tenant identity and injects it into the request context.
// The key format is "<tenant_id>.<secret>". Handlers behind this
// middleware obtain the tenant via CurrentTenant and never see requests
// from unknown or suspended tenants.
func TenantAuth(auth CredentialAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-API-Key")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing api key"})
			}
			tenantID, secret, ok := strings.Cut(raw, ".")
			if !ok || tenantID == "" || secret == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed api key"})
			}
			t, err := auth.Authenticate(c.Request().Context(), tenantID, secret)
			if err != nil {
				if errors.Is(err, service.ErrTenantSuspended) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant suspended"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid api key"})
			}
			c.Set(tenantContextKey, t)
			c.Set("tenant_id", t.ID)
			return next(c)
		}
	}
}

// CurrentTenant extracts the tenant resolved by TenantAuth. It returns
// false when the middleware did not run, which is a wiring bug in the
// route table rather than a client error.
func CurrentTenant(c echo.Context) (*model.Tenant, bool) {
	t, ok := c.Get(tenantContextKey).(*model.Tenant)
	return t, ok
}

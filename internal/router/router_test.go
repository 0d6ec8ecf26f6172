package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/platform/internal/cache"
	"github.com/slotwise/platform/internal/handler"
	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/router"
	"github.com/slotwise/platform/internal/service"
	"github.com/slotwise/platform/internal/utils"
)

type noopLedger struct{}

func (noopLedger) Insert(context.Context, *model.Booking) error { return nil }
func (noopLedger) GetByID(context.Context, string, string) (*model.Booking, error) {
	return nil, repository.ErrBookingNotFound
}
func (noopLedger) Cancel(context.Context, string, string) error  { return repository.ErrBookingNotFound }
func (noopLedger) Confirm(context.Context, string, string) error { return repository.ErrBookingNotFound }
func (noopLedger) ActiveDates(context.Context, string, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

type noopEventStore struct{}

func (noopEventStore) Record(context.Context, *model.PaymentEvent) error { return nil }
func (noopEventStore) MarkProcessed(context.Context, string, string) error {
	return nil
}
func (noopEventStore) Quarantine(context.Context, string, string) error { return nil }
func (noopEventStore) ListQuarantined(context.Context, int) ([]model.PaymentEvent, error) {
	return nil, nil
}
func (noopEventStore) ListUnprocessed(context.Context, time.Duration, int) ([]model.PaymentEvent, error) {
	return nil, nil
}

type singleTenantDirectory struct {
	tenant *model.Tenant
}

func (d *singleTenantDirectory) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	if d.tenant.ID != id {
		return nil, repository.ErrTenantNotFound
	}
	return d.tenant, nil
}

// newAPI wires the tenant API with a limiter that counts how often it
// fires, so tests can observe which routes are rate limited.
func newAPI(t *testing.T) (*echo.Echo, *atomic.Int64) {
	t.Helper()

	hash, err := utils.HashCredential("s3cret", 4)
	require.NoError(t, err)
	registry := service.NewRegistry(&singleTenantDirectory{tenant: &model.Tenant{
		ID:             "t1",
		Name:           "Acme",
		CredentialHash: hash,
		WebhookSecret:  "whsec",
		Status:         model.TenantActive,
	}})

	store := cache.NewStore(cache.NewMemoryBackend(), time.Minute, zerolog.Nop())
	reservations := service.NewReservationService(noopLedger{}, store, service.DefaultRetryPolicy, zerolog.Nop())
	availability := service.NewAvailabilityService(noopLedger{}, store, zerolog.Nop())
	ingest := service.NewIngestService(noopEventStore{}, noopLedger{}, store, nil, zerolog.Nop())

	var hits atomic.Int64
	limiter := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hits.Add(1)
			return next(c)
		}
	}

	e := echo.New()
	router.RegisterTenantAPI(e,
		registry,
		handler.NewReservationHandler(reservations),
		handler.NewAvailabilityHandler(availability),
		handler.NewWebhookHandler(ingest),
		limiter,
	)
	return e, &hits
}

func request(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-API-Key", "t1.s3cret")
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_GuardsClientDrivenRoutes(t *testing.T) {
	t.Parallel()

	e, hits := newAPI(t)

	rec := request(e, http.MethodPost, "/v1/reservations", `{"date":"2026-09-01","customer_ref":"c"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, hits.Load())

	rec = request(e, http.MethodGet, "/v1/availability?date=2026-09-01", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, hits.Load())

	rec = request(e, http.MethodGet, "/v1/availability/range?from=2026-09-01&to=2026-09-03", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, hits.Load())
}

func TestRateLimiter_NeverThrottlesPaymentWebhook(t *testing.T) {
	t.Parallel()

	e, hits := newAPI(t)

	// The provider's deliveries must reach the ingestion gate no matter
	// how hot the tenant's own traffic runs; throttling them would turn
	// a client retry storm into provider retry escalation.
	for i := 0; i < 5; i++ {
		rec := request(e, http.MethodPost, "/v1/payments/events", `{"event_id":"evt"}`)
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}
	assert.EqualValues(t, 0, hits.Load(), "the webhook route must bypass the limiter")
}

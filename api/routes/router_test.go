package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	internalorders "github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	stripewebhook "github.com/angelmondragon/packfinderz-settlement/internal/webhooks/stripe"
	pkgAuth "github.com/angelmondragon/packfinderz-settlement/pkg/auth"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrders struct{ shipped int }

func (s *stubOrders) MarkShipped(_ context.Context, input internalorders.ShipInput) (*models.Order, error) {
	s.shipped++
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusShipped}, nil
}

func (s *stubOrders) MarkDelivered(_ context.Context, input internalorders.DeliverInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusDelivered}, nil
}

type noopReconciler struct{}

func (noopReconciler) Handle(context.Context, settlement.Event) (string, error) {
	return "applied", nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "dev"},
		JWT:       config.JWTConfig{Secret: "router-secret", Issuer: "settlement", ExpirationMinutes: 15},
		RateLimit: config.RateLimitConfig{SellerWindow: time.Minute, SellerLimit: 60},
	}
}

func newTestRouter(t *testing.T, orders *stubOrders) http.Handler {
	t.Helper()
	verifier, err := stripewebhook.NewVerifier("whsec_router", 0)
	require.NoError(t, err)
	hooks, err := stripewebhook.NewService(stripewebhook.ServiceParams{Verifier: verifier, Reconciler: noopReconciler{}})
	require.NoError(t, err)

	return NewRouter(Params{
		Config:   testConfig(),
		Logger:   logger.Nop(),
		DB:       stubPinger{},
		Gatherer: prometheus.NewRegistry(),
		Webhooks: hooks,
		Orders:   orders,
	})
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(t, &stubOrders{})

	require.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	require.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
	require.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestStripeWebhookIsUnauthenticatedButSigned(t *testing.T) {
	router := newTestRouter(t, &stubOrders{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	rec := serve(router, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "SIGNATURE_INVALID")
}

func TestSellerRoutesRequireSellerRole(t *testing.T) {
	orders := &stubOrders{}
	router := newTestRouter(t, orders)
	path := "/api/v1/seller/orders/" + uuid.NewString() + "/deliver"

	require.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodPost, path, nil)).Code)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleBuyer))
	require.Equal(t, http.StatusForbidden, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleSeller))
	rec := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "delivered")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t, &stubOrders{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	req.Header.Set("Authorization", bearer(t, enums.UserRoleSeller))
	require.Equal(t, http.StatusForbidden, serve(router, req).Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t, &stubOrders{})
	require.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
}

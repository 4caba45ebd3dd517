package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

type memoryIdempotencyStore struct {
	values map[string]string
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, key string) string {
	return "idem:" + scope + ":" + key
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value.(string)
	return nil
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func idempotentRouter(store IdempotencyStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/admin/v1/withdrawals/{withdrawalId}/process", func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"approved"}}`))
	})
	r.Get("/api/admin/v1/withdrawals", func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func idempotentRequest(userID uuid.UUID, method, path, key, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithIdentity(req.Context(), userID, enums.UserRoleAdmin))
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := &memoryIdempotencyStore{}
	calls := 0
	router := idempotentRouter(store, &calls)
	adminID := uuid.New()
	path := "/api/admin/v1/withdrawals/" + uuid.NewString() + "/process"

	first := httptest.NewRecorder()
	router.ServeHTTP(first, idempotentRequest(adminID, http.MethodPost, path, "k1", `{"action":"approve"}`))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, idempotentRequest(adminID, http.MethodPost, path, "k1", `{"action":"approve"}`))

	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.Equal(t, "true", second.Header().Get(idempotentReplayHeader))
	require.Empty(t, first.Header().Get(idempotentReplayHeader))
}

func TestIdempotencyRejectsWhileInFlight(t *testing.T) {
	store := &memoryIdempotencyStore{}
	adminID := uuid.New()
	path := "/api/admin/v1/withdrawals/" + uuid.NewString() + "/process"

	var inner *httptest.ResponseRecorder
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/admin/v1/withdrawals/{withdrawalId}/process", func(w http.ResponseWriter, req *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			r.ServeHTTP(inner, idempotentRequest(adminID, http.MethodPost, path, "k1", `{}`))
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, idempotentRequest(adminID, http.MethodPost, path, "k1", `{}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Contains(t, inner.Body.String(), "in progress")
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := &memoryIdempotencyStore{}
	adminID := uuid.New()
	path := "/api/admin/v1/withdrawals/" + uuid.NewString() + "/process"
	calls := 0

	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/admin/v1/withdrawals/{withdrawalId}/process", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, idempotentRequest(adminID, http.MethodPost, path, "k1", `{}`))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, idempotentRequest(adminID, http.MethodPost, path, "k1", `{}`))

	require.Equal(t, http.StatusServiceUnavailable, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, 2, calls)
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := &memoryIdempotencyStore{}
	calls := 0
	router := idempotentRouter(store, &calls)
	adminID := uuid.New()
	path := "/api/admin/v1/withdrawals/" + uuid.NewString() + "/process"

	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest(adminID, http.MethodPost, path, "k1", `{"action":"approve"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, idempotentRequest(adminID, http.MethodPost, path, "k1", `{"action":"reject"}`))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, calls)
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	calls := 0
	router := idempotentRouter(&memoryIdempotencyStore{}, &calls)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, idempotentRequest(uuid.New(), http.MethodPost, "/api/admin/v1/withdrawals/"+uuid.NewString()+"/process", "", `{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, calls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, idempotentRequest(uuid.New(), http.MethodGet, "/api/admin/v1/withdrawals", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)
}

func TestRouteTTL(t *testing.T) {
	id := uuid.NewString()
	ttl, ok := routeTTL(http.MethodPost, "/api/admin/v1/withdrawals/"+id+"/process")
	require.True(t, ok)
	require.Equal(t, criticalIdempotencyTTL, ttl)

	ttl, ok = routeTTL(http.MethodPost, "/api/v1/seller/orders/"+id+"/ship")
	require.True(t, ok)
	require.Equal(t, defaultIdempotencyTTL, ttl)

	_, ok = routeTTL(http.MethodPost, "/api/v1/notifications/read-all")
	require.True(t, ok)

	_, ok = routeTTL(http.MethodPost, "/api/admin/v1/users/"+id+"/unsuspend")
	require.True(t, ok)

	_, ok = routeTTL(http.MethodPost, "/api/v1/webhooks/stripe")
	require.False(t, ok)
	_, ok = routeTTL(http.MethodGet, "/api/v1/seller/orders/"+id+"/ship")
	require.False(t, ok)
}

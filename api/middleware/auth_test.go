package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/angelmondragon/packfinderz-settlement/pkg/auth"
	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "settlement", ExpirationMinutes: 15}

func mintToken(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", UserIDFromContext(r.Context()).String())
		w.Header().Set("X-Role", string(RoleFromContext(r.Context())))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthSeedsIdentity(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, enums.UserRoleSeller))
	rec := httptest.NewRecorder()

	Auth(testJWT, nil)(identityEcho()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, userID.String(), rec.Header().Get("X-User"))
	require.Equal(t, "seller", rec.Header().Get("X-Role"))
}

func TestAuthRejectsMissingAndForgedTokens(t *testing.T) {
	handler := Auth(testJWT, nil)(identityEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := pkgAuth.MintAccessToken(config.JWTConfig{Secret: "other", Issuer: "settlement", ExpirationMinutes: 15}, time.Now(),
		pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.UserRoleAdmin)(identityEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserRoleSeller))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
)

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg)(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "dev", resp.Header().Get("X-Settlement-Env"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, testLogger(),
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis", Pinger: stubPinger{err: errors.New("refused")}},
	)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = httptest.NewRecorder()
	HealthReady(cfg, testLogger(),
		ReadinessCheck{Name: "db", Pinger: stubPinger{}},
		ReadinessCheck{Name: "redis"},
	)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"db":"up"`)
}
